// Package netx holds transport helpers shared by the API client: a sized
// multipart body and a reader that reports how many bytes have been consumed.
package netx

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"strings"
	"sync"
)

// ProgressFunc receives the number of bytes sent so far and the total.
type ProgressFunc func(sent, total int64)

// ProgressReader wraps R and calls OnRead after every successful Read with
// the cumulative byte count. Total is passed through unchanged.
type ProgressReader struct {
	R      io.Reader
	Total  int64
	OnRead ProgressFunc

	mu   sync.Mutex
	sent int64
}

func NewProgressReader(r io.Reader, total int64, fn ProgressFunc) *ProgressReader {
	return &ProgressReader{R: r, Total: total, OnRead: fn}
}

func (p *ProgressReader) Read(b []byte) (int, error) {
	n, err := p.R.Read(b)
	if n > 0 {
		p.mu.Lock()
		p.sent += int64(n)
		sent := p.sent
		p.mu.Unlock()

		if p.OnRead != nil {
			p.OnRead(sent, p.Total)
		}
	}
	return n, err
}

// MultipartFile is the file part of a multipart body.
type MultipartFile struct {
	Field    string
	Filename string
	Size     int64
	Content  io.Reader
}

// MultipartBody is a streaming multipart/form-data body whose length is known
// up front: head (fields and the file part header) + file content + tail.
type MultipartBody struct {
	io.Reader
	ContentType   string
	ContentLength int64
}

// NewMultipartBody lays out fields (in the given order) followed by the file
// part. The file content is streamed, never buffered.
func NewMultipartBody(fields [][2]string, file MultipartFile) (*MultipartBody, error) {
	if file.Size < 0 {
		return nil, fmt.Errorf("multipart: negative file size %d", file.Size)
	}

	var head bytes.Buffer
	w := multipart.NewWriter(&head)

	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, fmt.Errorf("multipart: write field %s: %w", f[0], err)
		}
	}
	if _, err := w.CreateFormFile(file.Field, file.Filename); err != nil {
		return nil, fmt.Errorf("multipart: create file part: %w", err)
	}

	// Same bytes multipart.Writer.Close would emit after the last part.
	tail := "\r\n--" + w.Boundary() + "--\r\n"

	return &MultipartBody{
		Reader:        io.MultiReader(bytes.NewReader(head.Bytes()), io.LimitReader(file.Content, file.Size), strings.NewReader(tail)),
		ContentType:   w.FormDataContentType(),
		ContentLength: int64(head.Len()) + file.Size + int64(len(tail)),
	}, nil
}
