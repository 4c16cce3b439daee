// Herald - Notification Dispatch and Scheduling Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/herald/internal/models"
	"github.com/tomtom215/herald/internal/notification"
	"github.com/tomtom215/herald/internal/validation"
)

// UserIDHeader identifies the calling user. Authentication happens upstream.
const UserIDHeader = "X-User-ID"

const (
	maxUserIDLength = 128
	maxBodyBytes    = 1 << 20
)

// requireUserID returns the caller or writes 401.
func requireUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := strings.TrimSpace(r.Header.Get(UserIDHeader))
	if userID == "" || len(userID) > maxUserIDLength {
		NewResponseWriter(w, r).Unauthorized("Missing or invalid " + UserIDHeader + " header")
		return "", false
	}
	return userID, true
}

// decodeBody decodes a JSON body into dst. An empty body is allowed when
// optional is true. Failures write 400.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}, optional bool) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			NewResponseWriter(w, r).Error(http.StatusRequestEntityTooLarge, ErrCodeBadRequest, "Request body too large")
			return false
		}
		NewResponseWriter(w, r).BadRequest("Failed to read request body")
		return false
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		if optional {
			return true
		}
		NewResponseWriter(w, r).BadRequest("Request body is required")
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		NewResponseWriter(w, r).BadRequest("Invalid JSON body: " + err.Error())
		return false
	}
	return true
}

// validateRequest runs struct validation and writes 400 on failure.
func validateRequest(w http.ResponseWriter, r *http.Request, req interface{}) bool {
	if verr := validation.ValidateStruct(req); verr != nil {
		writeValidationError(w, r, verr)
		return false
	}
	return true
}

func writeValidationError(w http.ResponseWriter, r *http.Request, verr *validation.RequestValidationError) {
	apiErr := verr.ToAPIError()
	NewResponseWriter(w, r).ValidationError(apiErr.Message, apiErr.Details)
}

// parseListFilter reads status, limit and offset query parameters.
func parseListFilter(r *http.Request) (notification.ListFilter, error) {
	q := r.URL.Query()
	filter := notification.ListFilter{}
	filter.Status = models.NotificationStatus(q.Get("status"))

	var err error
	if filter.Limit, err = intParam(q.Get("limit")); err != nil {
		return filter, errors.New("limit must be an integer")
	}
	if filter.Offset, err = intParam(q.Get("offset")); err != nil {
		return filter, errors.New("offset must be an integer")
	}
	return filter, nil
}

func intParam(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}
