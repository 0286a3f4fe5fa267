package httpclient

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"sort"
)

// FilePart is one uploaded file of a multipart body.
type FilePart struct {
	Field    string
	Filename string
	Content  io.Reader
}

// Multipart is a form-data body. The client sends it with the
// writer-generated boundary header instead of the JSON content type.
type Multipart struct {
	Fields map[string]string
	Files  []FilePart
}

func (m *Multipart) encode() (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	keys := make([]string, 0, len(m.Fields))
	for k := range m.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := w.WriteField(k, m.Fields[k]); err != nil {
			return nil, "", err
		}
	}
	for i, f := range m.Files {
		if f.Field == "" || f.Content == nil {
			return nil, "", fmt.Errorf("file part %d: %w", i, errors.New("field and content are required"))
		}
		fw, err := w.CreateFormFile(f.Field, f.Filename)
		if err != nil {
			return nil, "", err
		}
		if _, err := io.Copy(fw, f.Content); err != nil {
			return nil, "", fmt.Errorf("file part %d: %w", i, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
