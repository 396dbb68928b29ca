// SPDX-License-Identifier: ice License 1.0

package server

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-reflect"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/ximeleavesystem-glitch/xime-gate-otp-engine/log"
)

func RootHandler[REQ, RESP any](handleRequest func(context.Context, *Request[REQ, RESP]) (*Response[RESP], *Response[ErrorResponse])) func(*gin.Context) {
	return func(ginCtx *gin.Context) {
		ctx, cancel := context.WithTimeout(ginCtx.Request.Context(), endpointTimeout())
		defer cancel()
		if ginCtx.Request.ProtoMajor < 2 { //nolint:mnd,gomnd // HTTP/2.
			log.Debug(fmt.Sprintf("suboptimal http version used for %[1]T", new(REQ)), "expected", "HTTP/2.0", "actual", ginCtx.Request.Proto)
		}
		req := new(Request[REQ, RESP]).init(ginCtx)
		if err := req.processRequest(); err != nil {
			log.Error(errors.Wrap(err.Data.InternalErr(), "endpoint processing failed"), "requestId", req.RequestID, "response", err.Data)
			ginCtx.JSON(err.Code, err.Data)

			return
		}
		success, failure := handleRequest(ctx, req)
		if failure != nil {
			log.Error(errors.Wrap(failure.Data.InternalErr(), "endpoint failed"), "requestId", req.RequestID, "response", failure.Data)
			ginCtx.JSON(req.processErrorResponse(ctx, failure))

			return
		}
		for k, v := range success.Headers {
			ginCtx.Header(k, v)
		}
		if success.Data != nil {
			ginCtx.JSON(success.Code, success.Data)
		} else {
			ginCtx.Status(success.Code)
		}
	}
}

func (req *Request[REQ, RESP]) init(ginCtx *gin.Context) *Request[REQ, RESP] {
	req.Data = new(REQ)
	req.ClientIP = net.ParseIP(ginCtx.ClientIP())
	req.RequestID = ginCtx.GetString(requestIDCtxKey)
	req.ginCtx = ginCtx

	return req
}

func (req *Request[REQ, RESP]) processTags() {
	elem := reflect.TypeOf(req.Data).Elem()
	if elem.Kind() != reflect.Struct {
		log.Panic("request data's have to be structs")
	}
	const enabled = "true"
	fieldCount := elem.NumField()
	req.requiredFields = make([]string, 0, fieldCount)
	req.bindings = make(map[requestBinding]struct{}, 4) //nolint:mnd,gomnd // They're 4 possible values.
	for i := range fieldCount {
		tag := elem.Field(i).Tag
		if tag.Get("required") == enabled {
			req.requiredFields = append(req.requiredFields, elem.Field(i).Name)
		}
		if jsonTag := tag.Get("json"); jsonTag != "" && jsonTag != "-" {
			req.bindings[jsonBinding] = struct{}{}
		}
		if tag.Get("uri") != "" {
			req.bindings[uriBinding] = struct{}{}
		}
		if tag.Get("header") != "" {
			req.bindings[headerBinding] = struct{}{}
		}
		if tag.Get("form") != "" {
			req.bindings[queryBinding] = struct{}{}
		}
	}
}

func (req *Request[REQ, RESP]) processRequest() *Response[ErrorResponse] {
	req.processTags()
	var errs []error
	for b := range req.bindings {
		switch b {
		case jsonBinding:
			if req.ginCtx.Request.Method == http.MethodGet {
				continue
			}
			if err := req.ginCtx.ShouldBindJSON(req.Data); err != nil && !errors.Is(err, io.EOF) {
				return BadRequest(errors.Wrap(err, "invalid JSON"), "INVALID_JSON")
			}
		case uriBinding:
			errs = append(errs, req.ginCtx.ShouldBindUri(req.Data))
		case queryBinding:
			errs = append(errs, req.ginCtx.ShouldBindQuery(req.Data))
		case headerBinding:
			errs = append(errs, req.ginCtx.ShouldBindHeader(req.Data))
		}
	}
	if err := multierror.Append(nil, errs...).ErrorOrNil(); err != nil {
		return UnprocessableEntity(errors.Wrapf(err, "binding failed"), "STRUCTURE_VALIDATION_FAILED")
	}

	return req.validate()
}

func (req *Request[REQ, RESP]) validate() *Response[ErrorResponse] {
	if len(req.requiredFields) == 0 {
		return nil
	}
	value := reflect.ValueOf(req.Data).Elem()
	requiredFields := make([]string, 0, len(req.requiredFields))
	for _, field := range req.requiredFields {
		if value.FieldByName(field).IsZero() {
			requiredFields = append(requiredFields, field)
		}
	}
	if len(requiredFields) == 0 {
		return nil
	}

	return UnprocessableEntity(errors.Errorf("properties `%v` are required", strings.Join(requiredFields, ",")), "MISSING_PROPERTIES")
}

func (req *Request[REQ, RESP]) processErrorResponse(ctx context.Context, failure *Response[ErrorResponse]) (int, *ErrorResponse) {
	err := failure.Data.InternalErr()
	if reqErr := req.ginCtx.Request.Context().Err(); reqErr != nil && errors.Is(err, reqErr) {
		return http.StatusServiceUnavailable, &ErrorResponse{Error: "service is shutting down"}
	}
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		return http.StatusGatewayTimeout, &ErrorResponse{Error: "request timed out"}
	}
	if failure.Code <= 0 {
		return http.StatusInternalServerError, &ErrorResponse{Error: "oops, something went wrong"}
	}

	return failure.Code, failure.Data
}

func requestID(ginCtx *gin.Context) {
	id := ginCtx.GetHeader(RequestIDHeader)
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
	}
	ginCtx.Set(requestIDCtxKey, id)
	ginCtx.Header(RequestIDHeader, id)
	ginCtx.Next()
}

func methodNotAllowed(ginCtx *gin.Context) {
	ginCtx.JSON(http.StatusMethodNotAllowed, &ErrorResponse{Error: "method not allowed", Code: "METHOD_NOT_ALLOWED"})
}

func notFound(ginCtx *gin.Context) {
	ginCtx.JSON(http.StatusNotFound, &ErrorResponse{Error: "not found", Code: "NOT_FOUND"})
}

func endpointTimeout() time.Duration {
	if cfg.DefaultEndpointTimeout <= 0 {
		return fallbackRequestTimeout
	}

	return cfg.DefaultEndpointTimeout
}
