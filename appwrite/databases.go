package appwrite

import (
	"context"
	"net/http"
)

const documentsPath = "/databases/{databaseId}/collections/{collectionId}/documents"

func documentParams(databaseID, collectionID string) map[string]string {
	return map[string]string{
		"databaseId":   databaseID,
		"collectionId": collectionID,
	}
}

// CreateDocument creates a document and decodes the stored document into out.
// An empty documentID gets a generated one.
func (c *Client) CreateDocument(ctx context.Context, databaseID, collectionID, documentID string, data, out any) error {
	if documentID == "" {
		documentID = NewID()
	}
	_, err := c.do(ctx, request{
		operation: "documents.create",
		method:    http.MethodPost,
		path:      documentsPath,
		params:    documentParams(databaseID, collectionID),
		body:      createDocumentRequest{DocumentID: documentID, Data: data},
		result:    out,
	})
	return err
}

// ListDocuments lists documents matching queries
func (c *Client) ListDocuments(ctx context.Context, databaseID, collectionID string, queries ...Query) (*DocumentList, error) {
	var list DocumentList
	_, err := c.do(ctx, request{
		operation: "documents.list",
		method:    http.MethodGet,
		path:      documentsPath,
		params:    documentParams(databaseID, collectionID),
		query:     encodeQueries(queries),
		result:    &list,
	})
	if err != nil {
		return nil, err
	}
	return &list, nil
}

// UpdateDocument patches the given attributes of a document
func (c *Client) UpdateDocument(ctx context.Context, databaseID, collectionID, documentID string, data, out any) error {
	params := documentParams(databaseID, collectionID)
	params["documentId"] = documentID
	_, err := c.do(ctx, request{
		operation: "documents.update",
		method:    http.MethodPatch,
		path:      documentsPath + "/{documentId}",
		params:    params,
		body:      updateDocumentRequest{Data: data},
		result:    out,
	})
	return err
}

// DeleteDocument deletes a document by id
func (c *Client) DeleteDocument(ctx context.Context, databaseID, collectionID, documentID string) error {
	params := documentParams(databaseID, collectionID)
	params["documentId"] = documentID
	_, err := c.do(ctx, request{
		operation: "documents.delete",
		method:    http.MethodDelete,
		path:      documentsPath + "/{documentId}",
		params:    params,
	})
	return err
}
