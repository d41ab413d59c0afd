package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/debemdeboas/spawnwrite/internal/config"
)

var ErrMuxNotReady = errors.New("mux asset not ready")

// MuxProvider streams uploads through Mux direct uploads and returns the HLS
// playback URL of the resulting asset.
type MuxProvider struct {
	cfg    config.MuxConfig
	client *http.Client
}

func NewMuxProvider(cfg config.MuxConfig, client *http.Client) *MuxProvider {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	if cfg.PollAttempts <= 0 {
		cfg.PollAttempts = 1
	}
	return &MuxProvider{cfg: cfg, client: client}
}

func (p *MuxProvider) Name() string {
	return "mux"
}

type muxUpload struct {
	ID      string `json:"id"`
	URL     string `json:"url"`
	Status  string `json:"status"`
	AssetID string `json:"asset_id"`
}

type muxAsset struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	PlaybackIDs []struct {
		ID     string `json:"id"`
		Policy string `json:"policy"`
	} `json:"playback_ids"`
}

type muxEnvelope[T any] struct {
	Data T `json:"data"`
}

type muxCreateUpload struct {
	CORSOrigin       string `json:"cors_origin"`
	NewAssetSettings struct {
		PlaybackPolicy []string `json:"playback_policy"`
	} `json:"new_asset_settings"`
}

func (p *MuxProvider) Upload(ctx context.Context, obj Object) (string, error) {
	upload, err := p.createUpload(ctx)
	if err != nil {
		return "", err
	}

	if err := p.put(ctx, upload.URL, obj); err != nil {
		return "", err
	}

	assetID, err := p.waitForAsset(ctx, upload.ID)
	if err != nil {
		return "", err
	}

	var asset muxEnvelope[muxAsset]
	if err := p.do(ctx, http.MethodGet, "/video/v1/assets/"+assetID, nil, &asset); err != nil {
		return "", errors.Wrap(err, "error fetching mux asset")
	}
	if len(asset.Data.PlaybackIDs) == 0 {
		return "", errors.Wrapf(ErrMuxNotReady, "asset %s has no playback id", assetID)
	}

	mediaLogger.Debug().Str("provider", p.Name()).Str("asset_id", assetID).Msg("Uploaded asset")
	return joinURL(p.cfg.StreamURL, asset.Data.PlaybackIDs[0].ID+".m3u8"), nil
}

func (p *MuxProvider) createUpload(ctx context.Context) (*muxUpload, error) {
	req := muxCreateUpload{CORSOrigin: p.cfg.CORSOrigin}
	req.NewAssetSettings.PlaybackPolicy = []string{"public"}

	var res muxEnvelope[muxUpload]
	if err := p.do(ctx, http.MethodPost, "/video/v1/uploads", req, &res); err != nil {
		return nil, errors.Wrap(err, "error creating mux upload")
	}
	if res.Data.URL == "" {
		return nil, errors.New("mux upload has no url")
	}
	return &res.Data, nil
}

func (p *MuxProvider) put(ctx context.Context, url string, obj Object) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, obj.Reader)
	if err != nil {
		return errors.Wrap(err, "error creating mux put request")
	}
	req.ContentLength = obj.Size
	req.Header.Set(config.HCType, obj.ContentType)

	resp, err := p.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "error sending file to mux")
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("mux upload returned %s", resp.Status)
	}
	return nil
}

func (p *MuxProvider) waitForAsset(ctx context.Context, uploadID string) (string, error) {
	for attempt := 0; attempt < p.cfg.PollAttempts; attempt++ {
		var res muxEnvelope[muxUpload]
		if err := p.do(ctx, http.MethodGet, "/video/v1/uploads/"+uploadID, nil, &res); err != nil {
			return "", errors.Wrap(err, "error polling mux upload")
		}

		switch res.Data.Status {
		case "errored", "cancelled", "timed_out":
			return "", fmt.Errorf("mux upload %s %s", uploadID, res.Data.Status)
		}
		if res.Data.AssetID != "" {
			return res.Data.AssetID, nil
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(p.cfg.PollInterval):
		}
	}
	return "", errors.Wrapf(ErrMuxNotReady, "upload %s", uploadID)
}

func (p *MuxProvider) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, joinURL(p.cfg.BaseURL, path[1:]), reader)
	if err != nil {
		return err
	}
	req.SetBasicAuth(p.cfg.TokenID, p.cfg.TokenSecret)
	if body != nil {
		req.Header.Set(config.HCType, config.CTypeJSON)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("mux %s %s: %s: %s", method, path, resp.Status, bytes.TrimSpace(msg))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
