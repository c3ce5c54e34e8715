// Package submit turns raw form input into a validated, normalized
// event record ready for the store. Every field arrives as text except
// the optional image, which arrives as raw bytes.
package submit

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"eventboard/internal/model"
)

// ValidationError reports a missing or unusable required field. The
// submission is blocked; nothing is persisted.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return "submit: missing required field: " + e.Field
}

// ImageError reports an image attachment that could not be read or
// encoded. The submission is blocked; a record with a broken image
// reference is never built.
type ImageError struct {
	Err error
}

func (e *ImageError) Error() string { return "submit: encode image: " + e.Err.Error() }
func (e *ImageError) Unwrap() error { return e.Err }

// Input is the raw form payload.
type Input struct {
	Title       string
	DateTime    string // combined value, e.g. "2025-01-05T14:30"
	Type        string
	Description string
	Location    string
	OtherInfo   string

	// Image is the raw attachment, absent when nil/empty. ImageName is
	// the uploaded filename, used only to detect a named-but-unreadable
	// attachment.
	Image     []byte
	ImageName string
}

// Build validates and normalizes the input into an EventRecord. The
// image, when present, is encoded into a self-contained data URI
// before the record is returned; callers hand the result to the store
// only after Build succeeds.
func Build(in Input) (model.EventRecord, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return model.EventRecord{}, &ValidationError{Field: "title"}
	}
	dateTime := strings.TrimSpace(in.DateTime)
	if dateTime == "" {
		return model.EventRecord{}, &ValidationError{Field: "date"}
	}

	date, clock, _ := strings.Cut(dateTime, "T")
	display := ""
	if clock != "" {
		formatted, err := to12Hour(clock)
		if err != nil {
			return model.EventRecord{}, &ValidationError{Field: "date"}
		}
		display = formatted
	}

	rec := model.EventRecord{
		Title:       title,
		Date:        date,
		Time:        display,
		Description: strings.TrimSpace(in.Description),
		Location:    strings.TrimSpace(in.Location),
		OtherInfo:   strings.TrimSpace(in.OtherInfo),
		Type:        strings.TrimSpace(in.Type),
	}

	if in.ImageName != "" && len(in.Image) == 0 {
		return model.EventRecord{}, &ImageError{Err: fmt.Errorf("attachment %q is empty", in.ImageName)}
	}
	if len(in.Image) > 0 {
		rec.Image = dataURI(in.Image)
	}

	return rec, nil
}

// to12Hour converts a 24-hour "HH:MM" value into the 12-hour display
// form, e.g. "14:30" -> "2:30 PM". Hour 0 displays as 12 AM and hour
// 12 as 12 PM.
func to12Hour(clock string) (string, error) {
	hs, ms, ok := strings.Cut(clock, ":")
	if !ok {
		return "", fmt.Errorf("malformed time %q", clock)
	}
	hour, err := strconv.Atoi(hs)
	if err != nil || hour < 0 || hour > 23 {
		return "", fmt.Errorf("bad hour in %q", clock)
	}
	minute, err := strconv.Atoi(ms)
	if err != nil || minute < 0 || minute > 59 {
		return "", fmt.Errorf("bad minute in %q", clock)
	}

	suffix := "AM"
	if hour >= 12 {
		suffix = "PM"
	}
	hour12 := hour % 12
	if hour12 == 0 {
		hour12 = 12
	}
	return fmt.Sprintf("%d:%02d %s", hour12, minute, suffix), nil
}

// dataURI encodes raw image bytes into a data URI, sniffing the MIME
// type from the content.
func dataURI(b []byte) string {
	mime := http.DetectContentType(b)
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(b)
}
