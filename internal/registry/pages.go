package registry

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// MaxPageSize bounds how much of a listing response is read (16MB).
const MaxPageSize = 16 * 1024 * 1024

//go:embed schema/page.schema.json
var pageSchemaBytes []byte

var (
	pageSchema     *jsonschema.Schema
	pageSchemaOnce sync.Once
	pageSchemaErr  error
	printer        = message.NewPrinter(language.English)
)

func getPageSchema() (*jsonschema.Schema, error) {
	pageSchemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(pageSchemaBytes))
		if err != nil {
			pageSchemaErr = fmt.Errorf("unmarshaling page schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource("page.schema.json", doc); err != nil {
			pageSchemaErr = fmt.Errorf("adding page schema resource: %w", err)
			return
		}
		pageSchema, pageSchemaErr = c.Compile("page.schema.json")
	})
	return pageSchema, pageSchemaErr
}

// PageURL returns the listing URL for a 1-based page number.
func (c *Client) PageURL(page, perPage int) string {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))
	return c.baseURL + "/extension?" + q.Encode()
}

// FetchPage retrieves one page of the extension catalog. A page shorter than
// perPage (the last one) is not an error.
func (c *Client) FetchPage(ctx context.Context, page, perPage int) (*PageResponse, error) {
	pageURL := c.PageURL(page, perPage)

	resp, err := c.get(ctx, pageURL, "application/json")
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxPageSize+1))
	if err != nil {
		return nil, &TransferError{URL: pageURL, Err: fmt.Errorf("reading response body: %w", err)}
	}
	if len(body) > MaxPageSize {
		return nil, &TransferError{URL: pageURL, Err: fmt.Errorf("response exceeds %d bytes", MaxPageSize)}
	}

	return decodePage(pageURL, body)
}

// decodePage checks body against the page schema and decodes it.
func decodePage(pageURL string, body []byte) (*PageResponse, error) {
	schema, err := getPageSchema()
	if err != nil {
		return nil, fmt.Errorf("loading page schema: %w", err)
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(body))
	if err != nil {
		return nil, &ParseError{URL: pageURL, Err: err}
	}
	if err := schema.Validate(inst); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return nil, &ParseError{URL: pageURL, Err: errors.New(describeViolation(ve))}
		}
		return nil, &ParseError{URL: pageURL, Err: err}
	}

	var page PageResponse
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, &ParseError{URL: pageURL, Err: err}
	}
	return &page, nil
}

// describeViolation flattens the leaf causes of a schema violation into one line.
func describeViolation(ve *jsonschema.ValidationError) string {
	var parts []string
	var walk func(*jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			loc := "/" + strings.Join(e.InstanceLocation, "/")
			msg := e.Error()
			if e.ErrorKind != nil {
				msg = e.ErrorKind.LocalizedString(printer)
			}
			parts = append(parts, loc+": "+msg)
			return
		}
		for _, cause := range e.Causes {
			walk(cause)
		}
	}
	walk(ve)
	return "schema violation: " + strings.Join(parts, "; ")
}
