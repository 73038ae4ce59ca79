// Package api is the client for the story platform's HTTP API. Every
// response body carries {"error": bool, "message": string}; a non-2xx
// status is treated the same as error:true.
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"strconv"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"

	"github.com/storywalk/storywalk/pkg/whttp"
)

const DefaultBaseURL = "https://story-api.dicoding.dev/v1"

// Story is the wire representation of a single geotagged story.
type Story struct {
	ID          string
	Name        string
	Description string
	PhotoURL    string
	CreatedAt   string
	Lat         float64
	Lon         float64
	HasLocation bool
}

// Auth is a successful login result.
type Auth struct {
	Token  string
	UserID string
	Name   string
}

// Draft is everything needed to create a story.
type Draft struct {
	Description string
	PhotoName   string
	Photo       []byte
	Lat         *float64
	Lon         *float64
}

// Error is an API-reported failure. A transport failure is returned as a
// plain wrapped error instead.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("api error (status %d)", e.StatusCode)
}

type Client struct {
	BaseURL string
	HTTP    *retryablehttp.Client
}

func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{BaseURL: baseURL}
}

// checkEnvelope validates the common response envelope and returns the raw
// body for further parsing.
func checkEnvelope(res *whttp.Response) (string, error) {
	msg := gjson.Get(res.BodyString, "message").Str
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return "", &Error{StatusCode: res.StatusCode, Message: msg}
	}
	if gjson.Get(res.BodyString, "error").Bool() {
		return "", &Error{StatusCode: res.StatusCode, Message: msg}
	}
	return res.BodyString, nil
}

func (c *Client) postJSON(path string, payload any) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	res, err := whttp.SendHTTPRequest(&whttp.Request{
		Method:      "POST",
		URL:         c.BaseURL + path,
		ContentType: "application/json",
		Body:        bytes.NewReader(body),
	}, c.HTTP)
	if err != nil {
		return "", fmt.Errorf("POST %s: %w", path, err)
	}
	return checkEnvelope(res)
}

func (c *Client) Register(name, email, password string) error {
	_, err := c.postJSON("/register", map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	})
	return err
}

func (c *Client) Login(email, password string) (*Auth, error) {
	body, err := c.postJSON("/login", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}
	result := gjson.Get(body, "loginResult")
	return &Auth{
		Token:  result.Get("token").Str,
		UserID: result.Get("userId").Str,
		Name:   result.Get("name").Str,
	}, nil
}

// ListStories fetches one page of stories, including location data.
func (c *Client) ListStories(token string, page, size int) ([]Story, error) {
	url := c.BaseURL + "/stories?location=1&page=" + strconv.Itoa(page) + "&size=" + strconv.Itoa(size)
	res, err := whttp.SendHTTPRequest(&whttp.Request{
		Method:  "GET",
		URL:     url,
		Headers: []whttp.Header{{Name: "Authorization", Value: "Bearer " + token}},
	}, c.HTTP)
	if err != nil {
		return nil, fmt.Errorf("GET /stories: %w", err)
	}
	body, err := checkEnvelope(res)
	if err != nil {
		return nil, err
	}

	var stories []Story
	for _, item := range gjson.Get(body, "listStory").Array() {
		stories = append(stories, storyFromJSON(item))
	}
	return stories, nil
}

// StoryDetail fetches a single story by ID.
func (c *Client) StoryDetail(token, id string) (*Story, error) {
	res, err := whttp.SendHTTPRequest(&whttp.Request{
		Method:  "GET",
		URL:     c.BaseURL + "/stories/" + id,
		Headers: []whttp.Header{{Name: "Authorization", Value: "Bearer " + token}},
	}, c.HTTP)
	if err != nil {
		return nil, fmt.Errorf("GET /stories/%s: %w", id, err)
	}
	body, err := checkEnvelope(res)
	if err != nil {
		return nil, err
	}
	story := storyFromJSON(gjson.Get(body, "story"))
	return &story, nil
}

// AddStory uploads a new story as multipart form data.
func (c *Client) AddStory(token string, draft Draft) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("description", draft.Description); err != nil {
		return err
	}
	part, err := w.CreateFormFile("photo", draft.PhotoName)
	if err != nil {
		return err
	}
	if _, err := part.Write(draft.Photo); err != nil {
		return err
	}
	if draft.Lat != nil && draft.Lon != nil {
		if err := w.WriteField("lat", strconv.FormatFloat(*draft.Lat, 'f', -1, 64)); err != nil {
			return err
		}
		if err := w.WriteField("lon", strconv.FormatFloat(*draft.Lon, 'f', -1, 64)); err != nil {
			return err
		}
	}
	if err := w.Close(); err != nil {
		return err
	}

	res, err := whttp.SendHTTPRequest(&whttp.Request{
		Method:      "POST",
		URL:         c.BaseURL + "/stories",
		ContentType: w.FormDataContentType(),
		Body:        bytes.NewReader(buf.Bytes()),
		Headers:     []whttp.Header{{Name: "Authorization", Value: "Bearer " + token}},
	}, c.HTTP)
	if err != nil {
		return fmt.Errorf("POST /stories: %w", err)
	}
	_, err = checkEnvelope(res)
	return err
}

func storyFromJSON(item gjson.Result) Story {
	s := Story{
		ID:          item.Get("id").Str,
		Name:        item.Get("name").Str,
		Description: item.Get("description").Str,
		PhotoURL:    item.Get("photoUrl").Str,
		CreatedAt:   item.Get("createdAt").Str,
	}
	lat, lon := item.Get("lat"), item.Get("lon")
	if lat.Exists() && lon.Exists() && lat.Type != gjson.Null && lon.Type != gjson.Null {
		s.Lat = lat.Float()
		s.Lon = lon.Float()
		s.HasLocation = true
	}
	return s
}
