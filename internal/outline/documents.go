package outline

import (
	"context"
	"time"
)

// NavigationNode is one entry of a collection's document tree.
type NavigationNode struct {
	ID       string           `json:"id"`
	Title    string           `json:"title"`
	URL      string           `json:"url"`
	Children []NavigationNode `json:"children"`
}

type Document struct {
	ID               string    `json:"id"`
	URLID            string    `json:"urlId"`
	Title            string    `json:"title"`
	Text             string    `json:"text"`
	Description      string    `json:"description,omitempty"`
	ParentDocumentID string    `json:"parentDocumentId"`
	CollectionID     string    `json:"collectionId"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

type Collection struct {
	ID          string `json:"id"`
	URLID       string `json:"urlId"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type CreateParams struct {
	Title            string `json:"title"`
	Text             string `json:"text"`
	CollectionID     string `json:"collectionId"`
	ParentDocumentID string `json:"parentDocumentId,omitempty"`
	Publish          bool   `json:"publish"`
}

// UpdateParams changes only the fields that are set.
type UpdateParams struct {
	Title *string `json:"title,omitempty"`
	Text  *string `json:"text,omitempty"`
}

// --- Collections ---

func (c *Client) FetchCollectionHierarchy(ctx context.Context, collectionID string) ([]NavigationNode, error) {
	return call[[]NavigationNode](ctx, c, "collections.documents", map[string]string{"id": collectionID})
}

func (c *Client) CollectionInfo(ctx context.Context, collectionID string) (*Collection, error) {
	col, err := call[Collection](ctx, c, "collections.info", map[string]string{"id": collectionID})
	if err != nil {
		return nil, err
	}
	return &col, nil
}

func (c *Client) ListCollections(ctx context.Context) ([]Collection, error) {
	const limit = 100
	var all []Collection
	for offset := 0; ; offset += limit {
		page, err := call[[]Collection](ctx, c, "collections.list", map[string]int{"offset": offset, "limit": limit})
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < limit {
			break
		}
	}
	return all, nil
}

// --- Documents ---

func (c *Client) FetchDocument(ctx context.Context, id string) (*Document, error) {
	d, err := call[Document](ctx, c, "documents.info", map[string]string{"id": id})
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *Client) CreateDocument(ctx context.Context, p CreateParams) (*Document, error) {
	p.Publish = true
	d, err := call[Document](ctx, c, "documents.create", p)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *Client) UpdateDocument(ctx context.Context, id string, p UpdateParams) (*Document, error) {
	payload := map[string]any{"id": id}
	if p.Title != nil {
		payload["title"] = *p.Title
	}
	if p.Text != nil {
		payload["text"] = *p.Text
	}
	d, err := call[Document](ctx, c, "documents.update", payload)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// MoveDocument places a document under parentID (or at the collection root
// when parentID is empty) at position index among its new siblings.
func (c *Client) MoveDocument(ctx context.Context, id, collectionID, parentID string, index int) error {
	payload := map[string]any{
		"id":           id,
		"collectionId": collectionID,
		"index":        index,
	}
	if parentID != "" {
		payload["parentDocumentId"] = parentID
	}
	resp, err := c.post(ctx, "documents.move", payload)
	if err != nil {
		return err
	}
	return drain("documents.move", resp)
}
