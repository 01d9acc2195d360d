package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// InstagramMessage is one unread direct message carrying shared media.
type InstagramMessage struct {
	ThreadID   string
	ItemID     string
	SenderID   string
	SenderName string
	MediaURL   string
}

// InboxClient is the Instagram direct-message surface the bridge polls.
type InboxClient interface {
	// Login authenticates the bridge account
	Login(ctx context.Context) error

	// FetchUnread returns unread messages that carry downloadable media
	FetchUnread(ctx context.Context) ([]InstagramMessage, error)

	// SendText replies in a thread
	SendText(ctx context.Context, threadID, text string) error

	// MarkSeen acknowledges an item so it is not returned again
	MarkSeen(ctx context.Context, threadID, itemID string) error
}

const instagramBaseURL = "https://i.instagram.com/api/v1"

// instagramHTTPClient talks to the private mobile API with a persistent
// session cookie jar. Only the handful of inbox endpoints the bridge needs
// are implemented.
type instagramHTTPClient struct {
	client    *http.Client
	username  string
	password  string
	userAgent string
	csrfToken string
	logger    *zap.Logger
}

// NewInstagramClient builds the private-API inbox client.
func NewInstagramClient(username, password, userAgent string, logger *zap.Logger) InboxClient {
	jar, _ := cookiejar.New(nil)
	return &instagramHTTPClient{
		client:    &http.Client{Jar: jar, Timeout: 30 * time.Second},
		username:  username,
		password:  password,
		userAgent: userAgent,
		logger:    logger,
	}
}

func (c *instagramHTTPClient) Login(ctx context.Context) error {
	form := url.Values{
		"username": {c.username},
		"password": {c.password},
	}
	var result struct {
		Status   string `json:"status"`
		LoggedIn struct {
			PK json.Number `json:"pk"`
		} `json:"logged_in_user"`
	}
	if err := c.do(ctx, http.MethodPost, "/accounts/login/", form, &result); err != nil {
		return fmt.Errorf("instagram login failed: %w", err)
	}
	if result.Status != "ok" {
		return fmt.Errorf("instagram login rejected: status %q", result.Status)
	}

	c.captureCSRF()
	c.logger.Info("Instagram bridge logged in", zap.String("username", c.username))
	return nil
}

func (c *instagramHTTPClient) FetchUnread(ctx context.Context) ([]InstagramMessage, error) {
	var inbox struct {
		Inbox struct {
			Threads []struct {
				ThreadID string `json:"thread_id"`
				Users    []struct {
					PK       json.Number `json:"pk"`
					Username string      `json:"username"`
				} `json:"users"`
				Items []struct {
					ItemID   string      `json:"item_id"`
					UserID   json.Number `json:"user_id"`
					ItemType string      `json:"item_type"`
					Media    struct {
						VideoVersions []struct {
							URL string `json:"url"`
						} `json:"video_versions"`
					} `json:"media_share"`
					Clip struct {
						Clip struct {
							VideoVersions []struct {
								URL string `json:"url"`
							} `json:"video_versions"`
						} `json:"clip"`
					} `json:"clip"`
				} `json:"items"`
			} `json:"threads"`
		} `json:"inbox"`
	}
	if err := c.do(ctx, http.MethodGet, "/direct_v2/inbox/?selected_filter=unread", nil, &inbox); err != nil {
		return nil, fmt.Errorf("failed to fetch inbox: %w", err)
	}

	var messages []InstagramMessage
	for _, thread := range inbox.Inbox.Threads {
		senders := make(map[string]string, len(thread.Users))
		for _, u := range thread.Users {
			senders[u.PK.String()] = u.Username
		}
		for _, item := range thread.Items {
			mediaURL := ""
			switch item.ItemType {
			case "media_share":
				if len(item.Media.VideoVersions) > 0 {
					mediaURL = item.Media.VideoVersions[0].URL
				}
			case "clip":
				if len(item.Clip.Clip.VideoVersions) > 0 {
					mediaURL = item.Clip.Clip.VideoVersions[0].URL
				}
			}
			if mediaURL == "" {
				continue
			}
			senderID := item.UserID.String()
			messages = append(messages, InstagramMessage{
				ThreadID:   thread.ThreadID,
				ItemID:     item.ItemID,
				SenderID:   senderID,
				SenderName: senders[senderID],
				MediaURL:   mediaURL,
			})
		}
	}
	return messages, nil
}

func (c *instagramHTTPClient) SendText(ctx context.Context, threadID, text string) error {
	form := url.Values{
		"thread_ids": {fmt.Sprintf("[%s]", threadID)},
		"text":       {text},
	}
	return c.do(ctx, http.MethodPost, "/direct_v2/threads/broadcast/text/", form, nil)
}

func (c *instagramHTTPClient) MarkSeen(ctx context.Context, threadID, itemID string) error {
	path := fmt.Sprintf("/direct_v2/threads/%s/items/%s/seen/", threadID, itemID)
	return c.do(ctx, http.MethodPost, path, url.Values{}, nil)
}

func (c *instagramHTTPClient) do(ctx context.Context, method, path string, form url.Values, out interface{}) error {
	var body *strings.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	} else {
		body = strings.NewReader("")
	}

	req, err := http.NewRequestWithContext(ctx, method, instagramBaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", c.userAgent)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if c.csrfToken != "" {
		req.Header.Set("X-CSRFToken", c.csrfToken)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("instagram API returned %d for %s", resp.StatusCode, path)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// captureCSRF lifts the csrftoken cookie the login response set; write
// endpoints require it echoed in a header.
func (c *instagramHTTPClient) captureCSRF() {
	base, err := url.Parse(instagramBaseURL)
	if err != nil {
		return
	}
	for _, cookie := range c.client.Jar.Cookies(base) {
		if cookie.Name == "csrftoken" {
			c.csrfToken = cookie.Value
			return
		}
	}
}
