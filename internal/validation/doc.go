// SocialRelay - Real-time Messaging and Notification Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/socialrelay

// Package validation provides struct validation using go-playground/validator v10.
//
// A thread-safe singleton validator reports fields by their JSON names and
// returns *RequestValidationError, which matches models.ErrValidation with
// errors.Is. The API layer therefore maps validation failures to 400 and the
// socket dispatcher returns their text in an error event without any extra
// translation.
//
// # Quick Start
//
//	type createPostRequest struct {
//	    Text      string `json:"text" validate:"required_without=MediaURL,max=2000"`
//	    MediaURL  string `json:"mediaUrl" validate:"required_with=MediaType,omitempty,url"`
//	    MediaType string `json:"mediaType" validate:"required_with=MediaURL,omitempty,oneof=image video"`
//	}
//
//	if err := validation.Struct(&req); err != nil {
//	    return err // errors.Is(err, models.ErrValidation) == true
//	}
//
// Single values are checked with Var:
//
//	err := validation.Var("content", content, "url")
//
// # Custom Tags
//
//   - notblank: string must contain a non-whitespace character
//   - contenttype: one of the message content types (text, image, video)
package validation
