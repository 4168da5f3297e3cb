package openai

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"

	"github.com/kart-io/camaral-bot/pkg/llm"
)

// Transcribe 调用 /audio/transcriptions，以 multipart 上传音频。
func (p *Provider) Transcribe(ctx context.Context, audio io.Reader, filename string, opts ...llm.TranscribeOption) (string, error) {
	o := llm.ApplyTranscribeOptions(opts...)
	model := p.config.TranscribeModel
	if o.Model != "" {
		model = o.Model
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	h.Set("Content-Type", "audio/ogg")
	part, err := w.CreatePart(h)
	if err != nil {
		return "", fmt.Errorf("创建表单失败: %w", err)
	}
	if _, err := io.Copy(part, audio); err != nil {
		return "", fmt.Errorf("写入音频失败: %w", err)
	}
	if err := w.WriteField("model", model); err != nil {
		return "", err
	}
	if o.Language != "" {
		if err := w.WriteField("language", o.Language); err != nil {
			return "", err
		}
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.BaseURL+"/audio/transcriptions", &body)
	if err != nil {
		return "", fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	p.setHeaders(req)

	var resp struct {
		Text string `json:"text"`
	}
	if err := p.client.DoJSON(req, &resp); err != nil {
		return "", asAPIError(err)
	}
	return resp.Text, nil
}
