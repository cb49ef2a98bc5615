package httpclient

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// MultipartBody is a multipart/form-data request body. Set it as
// Request.Body and the client encodes it with the matching Content-Type.
type MultipartBody struct {
	// Fields are plain form fields, written in key order. Empty values are skipped.
	Fields map[string]string
	// Files are file parts, written after the fields.
	Files []FilePart
}

// FilePart is one uploaded file.
type FilePart struct {
	// FieldName is the form field, e.g. "audio" or "file".
	FieldName string
	// FileName is the name reported to the server.
	FileName string
	// ContentType defaults to application/octet-stream.
	ContentType string
	// Data is the file content.
	Data []byte
}

// FileFromPath reads a file from disk into a FilePart named after its base
// name.
func FileFromPath(field, path string) (FilePart, error) {
	data, err := os.ReadFile(path) //nolint:gosec // caller-selected audio file
	if err != nil {
		return FilePart{}, err
	}
	return FilePart{FieldName: field, FileName: filepath.Base(path), Data: data}, nil
}

func (m *MultipartBody) encode() (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	keys := make([]string, 0, len(m.Fields))
	for k, v := range m.Fields {
		if v != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := w.WriteField(k, m.Fields[k]); err != nil {
			return nil, "", err
		}
	}

	for _, f := range m.Files {
		part, err := w.CreatePart(f.header())
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func (f FilePart) header() textproto.MIMEHeader {
	ct := f.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition",
		`form-data; name="`+quoteEscaper.Replace(f.FieldName)+`"; filename="`+quoteEscaper.Replace(f.FileName)+`"`)
	h.Set("Content-Type", ct)
	return h
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")
