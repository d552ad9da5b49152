package ner

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const (
	contentType     = "application/json"
	contentEncoding = "gzip"
)

type annotateRequest struct {
	Text  string `json:"text"`
	Model string `json:"model"`
}

func (c *Client) postJSON(ctx context.Context, url string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	req = c.setHeaders(req)
	req.Header.Set("Content-Type", contentType)

	resp, err := c.request(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gzipReader.Close()
		reader = gzipReader
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bad status: %s", resp.Status)
	}

	return body, nil
}

func (c *Client) request(req *http.Request) (*http.Response, error) {
	c.logger.Debug("make request", zap.String("url", req.URL.String()))
	return c.HTTPClient.Do(req)
}

func (c *Client) setHeaders(req *http.Request) *http.Request {
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept-Encoding", contentEncoding)
	req.Header.Set("Accept", contentType)

	return req
}

// parseEntities reads {"ents": [{"label": ..., "text": ...}]}. Entries without
// a label or text are skipped.
func parseEntities(body []byte) ([]Entity, error) {
	if !gjson.ValidBytes(body) {
		return nil, errors.New("ner service returned invalid json")
	}

	ents := gjson.GetBytes(body, "ents")
	if !ents.IsArray() {
		return nil, errors.New("ner service response has no ents array")
	}

	var entities []Entity
	ents.ForEach(func(_, value gjson.Result) bool {
		label := strings.TrimSpace(value.Get("label").String())
		text := strings.TrimSpace(value.Get("text").String())
		if label != "" && text != "" {
			entities = append(entities, Entity{Label: label, Text: text})
		}
		return true
	})

	return entities, nil
}
