// Package api is the REST client every manager talks through: base URL
// under /api, bearer token header, otel-instrumented transport, and the
// backend's JSON envelope decoded once in a single place.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	inErrors "github.com/amorlias/storefront/internal/errors"
	"github.com/amorlias/storefront/internal/log"
	"github.com/amorlias/storefront/internal/otel"
)

// TokenSource returns the current bearer token, or "" for a guest
// session.
type TokenSource func() string

type Client struct {
	baseURL string
	http    *http.Client
	token   TokenSource
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/") + "/api",
		http: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   timeout,
		},
		token: func() string { return "" },
	}
}

// SetTokenSource binds the session's token getter. The session itself
// is constructed with this client, so the binding happens after both
// exist.
func (t *Client) SetTokenSource(source TokenSource) {
	t.token = source
}

// Envelope is the response shape the backend wraps every JSON body in.
type Envelope struct {
	Status     string          `json:"status"`
	StatusCode int             `json:"statusCode"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
}

type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("api request failed with statusCode=%d message=%s", e.StatusCode, e.Message)
}

func (t *Client) Do(c context.Context, method, path string, body any, out any) error {
	c, span := otel.Tracer.Start(c, "Client "+method+" "+path)
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Client Do").
		Str(log.KeyEndpoint, method+" "+path).
		Logger()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			err = fmt.Errorf("failed marshaling request body with error=%w", err)
			inErrors.HandleError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(c, method, t.baseURL+path, reader)
	if err != nil {
		err = fmt.Errorf("failed creating request with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := t.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := t.http.Do(req)
	if err != nil {
		err = fmt.Errorf("failed sending request with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	defer resp.Body.Close()

	return t.decode(c, resp, out)
}

func (t *Client) decode(c context.Context, resp *http.Response, out any) error {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Client decode").
		Int(log.KeyStatusCode, resp.StatusCode).
		Logger()

	envelope := Envelope{}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return &Error{StatusCode: resp.StatusCode, Message: resp.Status}
		}
		err = fmt.Errorf("failed decoding response body with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}

	if resp.StatusCode >= http.StatusBadRequest || envelope.Status == "failed" {
		apiErr := &Error{StatusCode: resp.StatusCode, Message: envelope.Message}
		if envelope.StatusCode != 0 {
			apiErr.StatusCode = envelope.StatusCode
		}
		logger.Error().Err(apiErr).Msg(apiErr.Error())
		return apiErr
	}

	if out == nil || envelope.Data == nil {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		err = fmt.Errorf("failed unmarshaling response data with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	return nil
}

func (t *Client) Get(c context.Context, path string, out any) error {
	return t.Do(c, http.MethodGet, path, nil, out)
}

func (t *Client) Post(c context.Context, path string, body, out any) error {
	return t.Do(c, http.MethodPost, path, body, out)
}

func (t *Client) Put(c context.Context, path string, body, out any) error {
	return t.Do(c, http.MethodPut, path, body, out)
}

func (t *Client) Patch(c context.Context, path string, body, out any) error {
	return t.Do(c, http.MethodPatch, path, body, out)
}

func (t *Client) Delete(c context.Context, path string, out any) error {
	return t.Do(c, http.MethodDelete, path, nil, out)
}

// Download fetches a binary document (invoice, shipping label). The
// body is returned verbatim, not envelope-decoded.
func (t *Client) Download(c context.Context, path string) ([]byte, string, error) {
	c, span := otel.Tracer.Start(c, "Client Download "+path)
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Client Download").
		Str(log.KeyEndpoint, path).
		Logger()

	req, err := http.NewRequestWithContext(c, http.MethodGet, t.baseURL+path, nil)
	if err != nil {
		err = fmt.Errorf("failed creating request with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, "", err
	}
	if token := t.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := t.http.Do(req)
	if err != nil {
		err = fmt.Errorf("failed downloading document with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := &Error{StatusCode: resp.StatusCode, Message: resp.Status}
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, "", err
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		err = fmt.Errorf("failed reading document body with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, "", err
	}
	return raw, resp.Header.Get("Content-Type"), nil
}

// PostMultipart submits form fields plus local files under the given
// form key. Used by the return flow for evidence uploads.
func (t *Client) PostMultipart(
	c context.Context,
	path string,
	fields map[string]string,
	fileKey string,
	filePaths []string,
	out any,
) error {
	c, span := otel.Tracer.Start(c, "Client PostMultipart "+path)
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Client PostMultipart").
		Str(log.KeyEndpoint, path).
		Logger()

	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			err = fmt.Errorf("failed writing form field=%s with error=%w", k, err)
			inErrors.HandleError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return err
		}
	}
	for _, filePath := range filePaths {
		part, err := writer.CreateFormFile(fileKey, filepath.Base(filePath))
		if err != nil {
			err = fmt.Errorf("failed creating form file=%s with error=%w", filePath, err)
			inErrors.HandleError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return err
		}
		f, err := os.Open(filePath)
		if err != nil {
			err = fmt.Errorf("failed opening file=%s with error=%w", filePath, err)
			inErrors.HandleError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return err
		}
		_, err = io.Copy(part, f)
		f.Close()
		if err != nil {
			err = fmt.Errorf("failed copying file=%s with error=%w", filePath, err)
			inErrors.HandleError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return err
		}
	}
	if err := writer.Close(); err != nil {
		err = fmt.Errorf("failed closing multipart writer with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}

	req, err := http.NewRequestWithContext(c, http.MethodPost, t.baseURL+path, buf)
	if err != nil {
		err = fmt.Errorf("failed creating request with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if token := t.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := t.http.Do(req)
	if err != nil {
		err = fmt.Errorf("failed sending multipart request with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	defer resp.Body.Close()

	return t.decode(c, resp, out)
}

// Query builds a path with encoded query parameters, skipping empties.
func Query(path string, params map[string]string) string {
	values := url.Values{}
	for k, v := range params {
		if v == "" {
			continue
		}
		values.Set(k, v)
	}
	if len(values) == 0 {
		return path
	}
	return path + "?" + values.Encode()
}
