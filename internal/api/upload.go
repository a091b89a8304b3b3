package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"

	"github.com/spf13/afero"
)

// Upload is one file attached to a request submission.
type Upload struct {
	Name    string
	Content io.Reader
}

// OpenUploads opens every path on fs. The caller closes the returned files
// with the returned func.
func OpenUploads(fs afero.Fs, paths []string) ([]Upload, func(), error) {
	var files []afero.File
	closeAll := func() {
		for _, f := range files {
			_ = f.Close()
		}
	}
	uploads := make([]Upload, 0, len(paths))
	for _, p := range paths {
		f, err := fs.Open(p)
		if err != nil {
			closeAll()
			return nil, func() {}, fmt.Errorf("open %s: %w", p, err)
		}
		files = append(files, f)
		uploads = append(uploads, Upload{Name: filepath.Base(p), Content: f})
	}
	return uploads, closeAll, nil
}

// doMultipart posts payload as the "payload" JSON field plus every upload
// under "files".
func (c *Client) doMultipart(ctx context.Context, path string, payload any, files []Upload, out any) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	if err := w.WriteField("payload", string(data)); err != nil {
		return fmt.Errorf("write payload field: %w", err)
	}
	for _, f := range files {
		part, err := w.CreateFormFile("files", f.Name)
		if err != nil {
			return fmt.Errorf("create form file %s: %w", f.Name, err)
		}
		if _, err := io.Copy(part, f.Content); err != nil {
			return fmt.Errorf("copy %s: %w", f.Name, err)
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close multipart body: %w", err)
	}

	return c.do(ctx, http.MethodPost, path, w.FormDataContentType(), &buf, out)
}
