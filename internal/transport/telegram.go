package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultAPIBase = "https://api.telegram.org"

// Telegram implements Transport over the Telegram Bot API with long
// polling. The bot is used in private chats, so the caller id doubles
// as the chat id for replies.
type Telegram struct {
	apiBase string
	token   string
	timeout time.Duration
	client  *http.Client
	log     *slog.Logger

	// offset is the next update id to request; getUpdates acks
	// everything below it.
	offset int64
}

// NewTelegram creates a Telegram transport. timeout is the long-poll
// window for getUpdates.
func NewTelegram(token string, timeout time.Duration, log *slog.Logger) *Telegram {
	if log == nil {
		log = slog.Default()
	}
	return &Telegram{
		apiBase: defaultAPIBase,
		token:   token,
		timeout: timeout,
		client:  &http.Client{Timeout: timeout + 30*time.Second},
		log:     log,
	}
}

// Wire types for the subset of the Bot API the bot consumes.

type tgResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

type tgUpdate struct {
	UpdateID int64      `json:"update_id"`
	Message  *tgMessage `json:"message"`
}

type tgMessage struct {
	From     *tgUser     `json:"from"`
	Text     string      `json:"text"`
	Document *tgDocument `json:"document"`
}

type tgUser struct {
	ID int64 `json:"id"`
}

type tgDocument struct {
	FileID   string `json:"file_id"`
	FileName string `json:"file_name"`
}

type tgFile struct {
	FilePath string `json:"file_path"`
}

// Poll long-polls getUpdates and converts the batch to Updates.
func (t *Telegram) Poll(ctx context.Context) ([]Update, error) {
	params := url.Values{}
	params.Set("offset", strconv.FormatInt(t.offset, 10))
	params.Set("timeout", strconv.Itoa(int(t.timeout.Seconds())))
	params.Set("allowed_updates", `["message"]`)

	var raw []tgUpdate
	if err := t.call(ctx, "getUpdates", params, &raw); err != nil {
		return nil, err
	}

	updates := make([]Update, 0, len(raw))
	for _, u := range raw {
		if u.UpdateID >= t.offset {
			t.offset = u.UpdateID + 1
		}
		if u.Message == nil || u.Message.From == nil {
			continue
		}
		updates = append(updates, fromMessage(u.Message))
	}

	return updates, nil
}

// fromMessage maps one inbound message to an Update.
func fromMessage(m *tgMessage) Update {
	up := Update{
		CallerID: strconv.FormatInt(m.From.ID, 10),
		Text:     m.Text,
	}

	if m.Document != nil {
		up.Document = &Document{
			FileID: m.Document.FileID,
			Name:   m.Document.FileName,
		}
		return up
	}

	if strings.HasPrefix(m.Text, "/") {
		name, raw, _ := strings.Cut(m.Text[1:], " ")
		// Commands in groups arrive as /name@botname.
		name, _, _ = strings.Cut(name, "@")
		raw = strings.TrimSpace(raw)
		up.Command = &Command{
			Name: name,
			Args: strings.Fields(raw),
			Raw:  raw,
		}
	}

	return up
}

// Reply sends an HTML-formatted message to the caller's chat.
func (t *Telegram) Reply(ctx context.Context, callerID, html string) error {
	body, err := json.Marshal(map[string]any{
		"chat_id":    callerID,
		"text":       html,
		"parse_mode": "HTML",
	})
	if err != nil {
		return fmt.Errorf("encoding reply: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost,
		t.methodURL("sendMessage"), bytes.NewReader(body),
	)
	if err != nil {
		return fmt.Errorf("building reply request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending reply: %w", err)
	}
	defer resp.Body.Close()

	return decodeResponse(resp, nil)
}

// FetchDocument resolves the file handle via getFile and downloads
// its content.
func (t *Telegram) FetchDocument(ctx context.Context, fileID string) ([]byte, error) {
	params := url.Values{}
	params.Set("file_id", fileID)

	var file tgFile
	if err := t.call(ctx, "getFile", params, &file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDocumentNotFound, err)
	}

	fileURL := fmt.Sprintf("%s/file/bot%s/%s", t.apiBase, t.token, file.FilePath)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building download request: %w", err)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: download status %s", ErrDocumentNotFound, resp.Status)
	}

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}

	t.log.Debug("document fetched", "file_id", fileID, "bytes", len(content))
	return content, nil
}

// call performs a GET Bot API method call and decodes its result.
func (t *Telegram) call(ctx context.Context, method string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet,
		t.methodURL(method)+"?"+params.Encode(), nil,
	)
	if err != nil {
		return fmt.Errorf("building %s request: %w", method, err)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s: %w", method, err)
	}
	defer resp.Body.Close()

	return decodeResponse(resp, out)
}

// methodURL builds the URL for a Bot API method.
func (t *Telegram) methodURL(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", t.apiBase, t.token, method)
}

// decodeResponse unwraps the Bot API envelope into out.
func decodeResponse(resp *http.Response, out any) error {
	var envelope tgResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decoding api response: %w", err)
	}
	if !envelope.OK {
		return fmt.Errorf("api error: %s", envelope.Description)
	}
	if out != nil {
		if err := json.Unmarshal(envelope.Result, out); err != nil {
			return fmt.Errorf("decoding api result: %w", err)
		}
	}
	return nil
}
