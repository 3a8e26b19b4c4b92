package server

import (
	"sync"
)

// Document represents an open document in the workspace.
type Document struct {
	URI        string
	Text       string
	Version    int32
	LanguageID string
}

// DocumentStore manages all open documents.
type DocumentStore struct {
	documents map[string]*Document
	mu        sync.RWMutex
}

// NewDocumentStore creates a new document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents: make(map[string]*Document),
	}
}

// Set stores or updates a document. Handlers always store a fresh record
// rather than mutating through a previously returned pointer.
func (ds *DocumentStore) Set(uri string, doc *Document) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	ds.documents[uri] = doc
}

// Get retrieves a document by URI.
func (ds *DocumentStore) Get(uri string) (*Document, bool) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	doc, ok := ds.documents[uri]

	return doc, ok
}

// Version returns the current version of a document, with ok false when the
// document is not open. Publishing compares against this to discard results
// of a dispatch that a newer change or a close has overtaken.
func (ds *DocumentStore) Version(uri string) (int32, bool) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	doc, ok := ds.documents[uri]
	if !ok {
		return 0, false
	}

	return doc.Version, true
}

// Delete removes a document from the store.
func (ds *DocumentStore) Delete(uri string) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	delete(ds.documents, uri)
}

// Snapshot returns a copy of every open document, in no particular order.
// Batch cycles work from these copies so that concurrent edits cannot change
// the text under a dispatch in flight.
func (ds *DocumentStore) Snapshot() []Document {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	docs := make([]Document, 0, len(ds.documents))
	for _, doc := range ds.documents {
		docs = append(docs, *doc)
	}

	return docs
}

// Clear removes all documents from the store.
func (ds *DocumentStore) Clear() {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	ds.documents = make(map[string]*Document)
}
