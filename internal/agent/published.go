package agent

import (
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// HTTPPublished checks archive presence on the distribution point with a
// HEAD request. Any failure reads as not-published; publication state is
// re-derived on the next status query anyway.
type HTTPPublished struct {
	BaseURL string
	Log     zerolog.Logger

	httpClient *http.Client
}

func (p *HTTPPublished) Published(name string) bool {
	if p.BaseURL == "" {
		return false
	}

	client := p.httpClient
	if client == nil {
		client = &http.Client{Timeout: 3 * time.Second}
	}

	resp, err := client.Head(fmt.Sprintf("%s/%s", p.BaseURL, name))
	if err != nil {
		p.Log.Debug().Str("archive", name).Err(err).Msg("distribution point check failed")
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
