package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/treeverse/lakefs-go-client/openapi_schema"
)

// ApiResponse is the outcome of a successful call.
type ApiResponse[T any] struct {
	// Data is the decoded body. It is nil when return type checking is disabled
	// or the content was not preloaded.
	Data *T
	// Raw is the body exactly as received.
	Raw []byte
	// StatusCode and Header are zero unless the call was made WithHttpInfo.
	StatusCode  int
	Header      http.Header
	ContentType string
	// Body is the open response body when the call was made WithoutPreload.
	// The caller must close it.
	Body io.ReadCloser
}

// Record decodes the raw body into a generic Record.
func (r *ApiResponse[T]) Record() (Record, error) {
	codec, ok := CodecFor(r.ContentType)
	if !ok {
		codec = JSONCodec
	}
	return ToRecord(codec, r.Raw)
}

// CallWithHttpInfo runs the operation with the parameters in bag. It always returns
// a handle: with the Async option the call runs on a new goroutine, otherwise it has
// already completed when CallWithHttpInfo returns.
func (e *Endpoint[T]) CallWithHttpInfo(ctx context.Context, bag Params, opts ...CallOption) *AsyncResult[T] {
	options := NewCallOptions(opts...)
	if ctx == nil {
		ctx = e.session.baseContext()
	}
	// The caller may reuse the bag once we return.
	bag = maps.Clone(bag)
	if !options.Async {
		resp, err := e.call(ctx, bag, options)
		return completedResult[T](resp, err)
	}
	result := newAsyncResult[T]()
	go func() {
		result.complete(e.call(ctx, bag, options))
	}()
	return result
}

func (e *Endpoint[T]) call(ctx context.Context, bag Params, opts CallOptions) (*ApiResponse[T], error) {
	s := e.session
	op := e.settings.OperationID

	if err := e.validateParams(bag, opts); err != nil {
		return nil, err
	}
	auth, err := selectAuthenticator(s.authenticators, e.settings.Auth, s.config.AuthSchemePriority)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	base, err := s.serverURL(op, e.settings.Servers, opts.HostIndex)
	if err != nil {
		return nil, err
	}
	prepared, err := e.buildRequest(base, bag)
	if err != nil {
		return nil, err
	}
	ctx, release := withTotalTimeout(ctx, opts.RequestTimeout)
	if err = s.checkServerVersion(ctx, op, e.settings.AvailableFromVersion); err != nil {
		release()
		return nil, err
	}
	sent, err := s.send(ctx, prepared, auth, opts.RequestTimeout, release)
	if err != nil {
		return nil, err
	}
	return e.handleResponse(ctx, prepared, sent, opts)
}

// buildRequest substitutes path parameters, encodes query, header, body and form
// parameters and negotiates the content types.
func (e *Endpoint[T]) buildRequest(base string, bag Params) (*preparedRequest, error) {
	path := placeholderRe.ReplaceAllStringFunc(e.settings.Endpoint, func(placeholder string) string {
		name, _ := e.pathParamFor(strings.Trim(placeholder, "{}"))
		return url.PathEscape(strings.Join(toStrings(bag[name]), ","))
	})

	header := make(http.Header)
	var (
		query []queryParam
		form  = url.Values{}
		body  []byte
	)
	for _, name := range e.params.All {
		value, ok := bag[name]
		if !ok || isNil(value) {
			continue
		}
		wire := e.wireName(name)
		format := e.root.CollectionFormatMap[name]
		switch e.root.LocationMap[name] {
		case LocationQuery:
			query = append(query, queryParam{key: wire, values: formatCollection(toStrings(value), format)})
		case LocationHeader:
			header.Set(wire, strings.Join(formatCollection(toStrings(value), CollectionCSV), ""))
		case LocationForm:
			for _, v := range formatCollection(toStrings(value), format) {
				form.Add(wire, v)
			}
		case LocationBody:
			contentType := selectContentType(e.headers.ContentType)
			if raw, isRaw := value.([]byte); isRaw {
				body = raw
			} else {
				codec, known := CodecFor(contentType)
				if !known {
					return nil, fmt.Errorf("%s: cannot encode body as %s", e.settings.OperationID, contentType)
				}
				encoded, err := codec.Marshal(value)
				if err != nil {
					return nil, fmt.Errorf("%s: failed to encode body: %w", e.settings.OperationID, err)
				}
				body = encoded
			}
			header.Set(HeaderContentType, contentType)
		}
	}
	if len(form) > 0 {
		body = []byte(form.Encode())
		header.Set(HeaderContentType, ContentTypeFormURLEncoded)
	}
	if accept := selectAccept(e.headers.Accept); accept != "" {
		header.Set(HeaderAccept, accept)
	}
	header.Set(HeaderUserAgent, e.session.config.UserAgent)

	target := strings.TrimRight(base, "/") + path
	if encoded := encodeQuery(query); encoded != "" {
		target += "?" + encoded
	}
	return &preparedRequest{
		operationID: e.settings.OperationID,
		method:      e.settings.HTTPMethod,
		url:         target,
		header:      header,
		body:        body,
	}, nil
}

func (e *Endpoint[T]) handleResponse(ctx context.Context, prepared *preparedRequest, sent *sentResponse, opts CallOptions) (*ApiResponse[T], error) {
	resp := sent.Response
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, err := sent.readAll()
		if err != nil {
			return nil, &ApiError{Method: prepared.method, URL: prepared.url, Err: err}
		}
		return nil, newStatusError(prepared.method, prepared.url, resp, body)
	}

	out := &ApiResponse[T]{ContentType: resp.Header.Get(HeaderContentType)}
	if !opts.PreloadContent {
		out.Body = &releasingBody{ReadCloser: resp.Body, release: sent.release}
		if !opts.ReturnHttpDataOnly {
			out.StatusCode = resp.StatusCode
			out.Header = resp.Header.Clone()
		}
		return out, nil
	}

	body, err := sent.readAll()
	if err != nil {
		return nil, &ApiError{Method: prepared.method, URL: prepared.url, Err: err}
	}
	raw, err := e.session.doAfterRequest(ctx, &RawResponse{
		OperationID: prepared.operationID,
		Method:      prepared.method,
		URL:         prepared.url,
		StatusCode:  resp.StatusCode,
		Header:      resp.Header.Clone(),
		Body:        body,
	}, time.Since(sent.started))
	if err != nil {
		return nil, err
	}
	if raw.Header == nil {
		raw.Header = make(http.Header)
	}
	out.Raw = raw.Body
	out.ContentType = raw.Header.Get(HeaderContentType)
	if !opts.ReturnHttpDataOnly {
		out.StatusCode = raw.StatusCode
		out.Header = raw.Header
	}
	if !opts.CheckReturnType {
		return out, nil
	}
	data, err := e.decode(raw)
	if err != nil {
		return nil, err
	}
	out.Data = data
	return out, nil
}

// decode validates the body against the response schema and decodes it into T.
func (e *Endpoint[T]) decode(raw *RawResponse) (*T, error) {
	apiCtx := &ApiError{
		Method:     raw.Method,
		URL:        raw.URL,
		StatusCode: raw.StatusCode,
		Header:     raw.Header,
		Body:       raw.Body,
	}
	expected := fmt.Sprintf("%T", *new(T))
	contentType := raw.Header.Get(HeaderContentType)
	if contentType == "" {
		contentType = ContentTypeJSON
	}
	codec, ok := CodecFor(contentType)
	if !ok {
		return nil, &DecodeError{Expected: strings.Join(e.headers.Accept, ", "), Actual: contentType, ApiError: apiCtx}
	}
	if len(strings.TrimSpace(string(raw.Body))) == 0 {
		return nil, &DecodeError{Expected: expected, Actual: "empty body", ApiError: apiCtx}
	}

	if e.settings.ResponseSchema != "" {
		generic, err := normalizeJSON(codec, raw.Body)
		if err != nil {
			return nil, &DecodeError{Expected: expected, Actual: "malformed " + codecName(codec), Err: err, ApiError: apiCtx}
		}
		err = openapi_schema.ValidateComponentJSON(e.settings.ResponseSchema, generic)
		var violation *openapi_schema.SchemaViolation
		switch {
		case errors.As(err, &violation):
			return nil, &DecodeError{
				Field:    violation.Field,
				Expected: violation.Expected,
				Actual:   violation.Actual,
				Err:      violation,
				ApiError: apiCtx,
			}
		case err != nil:
			return nil, fmt.Errorf("%s: %w", e.settings.OperationID, err)
		}
	}

	data, err := decodeBody[T](codec, raw.Body)
	if err != nil {
		var decodeErr *DecodeError
		if errors.As(err, &decodeErr) {
			decodeErr.ApiError = apiCtx
		}
		return nil, err
	}
	return data, nil
}
