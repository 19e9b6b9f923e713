package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strings"

	"cms-console/internal/content"
	"cms-console/internal/schema"
)

// Schema fetches the type-scoped schema when schemaType is set, otherwise the
// legacy module-wide one.
func (c *Client) Schema(ctx context.Context, token, module, schemaType string) (schema.Schema, error) {
	path := "/content/schema/" + escape(module)
	if schemaType != "" {
		path += "/" + escape(schemaType)
	}
	var s schema.Schema
	err := c.getJSON(ctx, path, token, &s)
	return s, err
}

// SchemaTypes lists the schema types declared for module.
func (c *Client) SchemaTypes(ctx context.Context, token, module string) ([]string, error) {
	var raw []json.RawMessage
	if err := c.getJSON(ctx, "/content/schemas/"+escape(module), token, &raw); err != nil {
		return nil, err
	}
	types := make([]string, 0, len(raw))
	for _, item := range raw {
		var name string
		if err := json.Unmarshal(item, &name); err == nil {
			types = append(types, name)
			continue
		}
		var obj struct {
			SchemaType string `json:"schemaType"`
		}
		if err := json.Unmarshal(item, &obj); err == nil {
			types = append(types, obj.SchemaType)
		}
	}
	return content.SchemaTypes(types), nil
}

func (c *Client) SaveSchema(ctx context.Context, token string, s schema.Schema) error {
	return c.sendJSON(ctx, http.MethodPost, "/content/schema", token, s, nil)
}

func (c *Client) Posts(ctx context.Context, token, module string) ([]content.Post, error) {
	var posts []content.Post
	err := c.getJSON(ctx, "/content/posts/"+escape(module), token, &posts)
	return posts, err
}

// PublicPosts lists published posts without credentials.
func (c *Client) PublicPosts(ctx context.Context, module string) ([]content.Post, error) {
	var posts []content.Post
	err := c.getJSON(ctx, "/content/public/posts/"+escape(module), "", &posts)
	return posts, err
}

// Post fetches one entry. An empty token requests it anonymously.
func (c *Client) Post(ctx context.Context, token, id string) (content.Post, error) {
	var post content.Post
	err := c.getJSON(ctx, "/content/post/entry/"+escape(id), token, &post)
	return post, err
}

func (c *Client) CreatePost(ctx context.Context, token, module, schemaType string, data content.Data) error {
	path := "/content/post/" + escape(module)
	if schemaType != "" {
		path += "/" + escape(schemaType)
	}
	body, contentType, err := EncodePostPayload(data)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, path, token, bytes.NewReader(body), contentType, nil)
}

func (c *Client) UpdatePost(ctx context.Context, token, id string, data content.Data) error {
	body, contentType, err := EncodePostPayload(data)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPut, "/content/post/entry/"+escape(id), token, bytes.NewReader(body), contentType, nil)
}

func (c *Client) DeletePost(ctx context.Context, token, id string) error {
	return c.do(ctx, http.MethodDelete, "/content/post/entry/"+escape(id), token, nil, "", nil)
}

// EncodePostPayload wraps the whole data dictionary as one JSON part named
// "data".
func EncodePostPayload(data content.Data) ([]byte, string, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, "", err
	}
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="data"; filename="blob"`)
	header.Set("Content-Type", "application/json")
	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(payload); err != nil {
		return nil, "", err
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), mw.FormDataContentType(), nil
}

// Upload sends one file and returns the public URL the backend assigns.
func (c *Client) Upload(ctx context.Context, token, filename string, file io.Reader) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+escapeQuotes(filepath.Base(filename))+`"`)
	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename)))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	var url string
	if err := c.do(ctx, http.MethodPost, "/content/upload", token, &buf, mw.FormDataContentType(), &url); err != nil {
		return "", err
	}
	if url == "" {
		return "", ErrMalformed
	}
	return url, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
