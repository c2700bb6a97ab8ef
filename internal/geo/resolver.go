// Package geo resolves a best-effort location from request metadata, with a
// cached network lookup filling the gaps.
package geo

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/liuyve552/esa-ai-generator-sub000/internal/cache"
	"github.com/liuyve552/esa-ai-generator-sub000/internal/cache/keys"
	"github.com/liuyve552/esa-ai-generator-sub000/internal/core/model"
	"github.com/liuyve552/esa-ai-generator-sub000/internal/core/observability"
)

// RequestMeta is the edge-supplied portion of a request: geolocation headers
// plus the client IP.
type RequestMeta struct {
	City      string
	Country   string
	Region    string
	Latitude  *float64
	Longitude *float64
	IP        string
}

// MetaFromRequest extracts geolocation headers and the client IP.
func MetaFromRequest(r *http.Request) RequestMeta {
	m := RequestMeta{
		City:    strings.TrimSpace(r.Header.Get("X-Geo-City")),
		Country: strings.TrimSpace(r.Header.Get("X-Geo-Country")),
		Region:  strings.TrimSpace(r.Header.Get("X-Geo-Region")),
	}
	if f, err := strconv.ParseFloat(r.Header.Get("X-Geo-Latitude"), 64); err == nil {
		m.Latitude = &f
	}
	if f, err := strconv.ParseFloat(r.Header.Get("X-Geo-Longitude"), 64); err == nil {
		m.Longitude = &f
	}
	m.IP = clientIP(r)
	return m
}

func clientIP(r *http.Request) string {
	if v := strings.TrimSpace(r.Header.Get("X-Real-IP")); v != "" {
		return v
	}
	if v := r.Header.Get("X-Forwarded-For"); v != "" {
		if i := strings.IndexByte(v, ','); i > 0 {
			v = v[:i]
		}
		return strings.TrimSpace(v)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return host
}

// lookupResult is the cached shape of one network geolocation lookup.
type lookupResult struct {
	City      string   `json:"city"`
	Country   string   `json:"country"`
	Region    string   `json:"region"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	OK        bool     `json:"ok"`
}

type Option func(*Resolver)

func WithTTL(d time.Duration) Option {
	return func(r *Resolver) { r.ttl = d }
}

type Resolver struct {
	store     *cache.Store
	http      *http.Client
	lookupURL string
	logger    *slog.Logger
	ttl       time.Duration
}

func NewResolver(store *cache.Store, hc *http.Client, lookupURL string, logger *slog.Logger, opts ...Option) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Resolver{
		store:     store,
		http:      hc,
		lookupURL: strings.TrimRight(lookupURL, "/"),
		logger:    logger,
		ttl:       10 * time.Minute,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Resolve merges header data with a cached IP lookup. Header-derived fields
// always win, field by field; the lookup only fills gaps. It never fails —
// worst case is a LocationInfo with source "unknown". The client IP is
// scrubbed before the value is returned.
func (r *Resolver) Resolve(ctx context.Context, meta RequestMeta) model.LocationInfo {
	loc := model.LocationInfo{
		City:      meta.City,
		Country:   meta.Country,
		Region:    meta.Region,
		Latitude:  meta.Latitude,
		Longitude: meta.Longitude,
	}
	headerData := loc.City != "" || loc.Country != "" || loc.Latitude != nil

	if loc.City != "" && loc.Latitude != nil && loc.Longitude != nil {
		loc.Source = "headers"
		return loc
	}

	lr := r.lookup(ctx, meta.IP)
	if lr.OK {
		if loc.City == "" {
			loc.City = lr.City
		}
		if loc.Country == "" {
			loc.Country = lr.Country
		}
		if loc.Region == "" {
			loc.Region = lr.Region
		}
		if loc.Latitude == nil {
			loc.Latitude = lr.Latitude
		}
		if loc.Longitude == nil {
			loc.Longitude = lr.Longitude
		}
		loc.Source = "ip_lookup"
		return loc
	}

	if headerData {
		loc.Source = "headers"
	} else {
		loc.Source = "unknown"
	}
	return loc
}

func (r *Resolver) lookup(ctx context.Context, ip string) lookupResult {
	key := keys.GeoIP(ip)

	var cached lookupResult
	if r.store.Get(ctx, key, &cached) {
		return cached
	}

	res := r.fetch(ctx, ip)
	r.store.Put(ctx, key, res, r.ttl)
	return res
}

// fetch queries an ip-api style endpoint. Any failure degrades to a not-OK
// result; it never raises.
func (r *Resolver) fetch(ctx context.Context, ip string) lookupResult {
	target := r.lookupURL + "/"
	if ip != "" {
		target += url.PathEscape(ip)
	}

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return lookupResult{}
	}
	resp, err := r.http.Do(req)
	observability.ObserveUpstreamLatency("geo", time.Since(start).Seconds())
	if err != nil {
		r.logger.WarnContext(ctx, "geo lookup failed", "err", err)
		return lookupResult{}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		r.logger.WarnContext(ctx, "geo lookup non-200", "status", resp.StatusCode)
		return lookupResult{}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		r.logger.WarnContext(ctx, "geo lookup read failed", "err", err)
		return lookupResult{}
	}

	var payload struct {
		Status     string   `json:"status"`
		City       string   `json:"city"`
		Country    string   `json:"country"`
		RegionName string   `json:"regionName"`
		Lat        *float64 `json:"lat"`
		Lon        *float64 `json:"lon"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		r.logger.WarnContext(ctx, "geo lookup malformed body", "err", err)
		return lookupResult{}
	}
	if payload.Status != "" && payload.Status != "success" {
		return lookupResult{}
	}
	if payload.City == "" && payload.Lat == nil {
		return lookupResult{}
	}

	return lookupResult{
		City:      payload.City,
		Country:   payload.Country,
		Region:    payload.RegionName,
		Latitude:  payload.Lat,
		Longitude: payload.Lon,
		OK:        true,
	}
}
