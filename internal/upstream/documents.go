package upstream

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// Document is a KYC artifact attached to a proposal.
type Document struct {
	ID         string    `json:"id"`
	ProposalID string    `json:"proposalId"`
	Kind       string    `json:"kind"`
	FileName   string    `json:"fileName"`
	Verified   bool      `json:"verified"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// UploadDocument streams a KYC document to the backend as multipart form
// data. kind identifies the document type (id_proof, address_proof, ...).
func (c *Client) UploadDocument(ctx context.Context, proposalID, kind, fileName string, content io.Reader) (Document, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if err := writer.WriteField("kind", kind); err != nil {
		return Document{}, fmt.Errorf("encode upload: %w", err)
	}
	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		return Document{}, fmt.Errorf("encode upload: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return Document{}, fmt.Errorf("read upload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return Document{}, fmt.Errorf("encode upload: %w", err)
	}

	var out Document
	err = c.doRaw(ctx, http.MethodPost, "/proposals/"+proposalID+"/documents",
		writer.FormDataContentType(), &buf, &out)
	return out, err
}

func (c *Client) Documents(ctx context.Context, proposalID string) ([]Document, error) {
	var out []Document
	err := c.do(ctx, http.MethodGet, "/proposals/"+proposalID+"/documents", nil, &out)
	return out, err
}
