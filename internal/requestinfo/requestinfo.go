// internal/requestinfo/requestinfo.go
//
// Per-request client metadata: user-agent class, client IP, and country.
//
// Context
// -------
// The uuid API has no sessions or users; what operators want in access
// logs and metrics is *who* is calling: a browser, a crawler, or some
// other program, and roughly from where.  These structs are inert.  They
// hold no pointers to database handles or large buffers, so they are safe
// to log.
//
// Dependencies
// • github.com/avct/uasurfer          (UA parsing)
// • github.com/oschwald/geoip2-golang  (MaxMind lookup, optional)
//
// Notes
// -----
// • The raw User-Agent is never logged; only its class.
// • Oxford commas, two spaces after periods.

package requestinfo

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	surfer "github.com/avct/uasurfer"
	"github.com/oschwald/geoip2-golang"
)

// Client classes, also used as the `client` metrics label.
const (
	ClientBrowser = "browser"
	ClientBot     = "bot"
	ClientOther   = "other"
)

// UA holds the parsed user-agent properties.
type UA struct {
	Browser   string // "BrowserChrome", "BrowserFirefox", …
	Version   string // "125.0.6422"
	OS        string
	OSVersion string
	Device    string // "Desktop", "Mobile", "Tablet", or "Other"
	IsBot     bool
}

// Geo holds best-effort IP geolocation.  CountryISO is empty without a
// GeoLite2 database or on a miss.
type Geo struct {
	IP         net.IP
	CountryISO string
}

// Info is stored on the request context by Enricher.Middleware.
type Info struct {
	UA        UA
	Geo       Geo
	Timestamp time.Time
}

// Client classifies the caller for logs and metrics.
func (i *Info) Client() string {
	switch {
	case i == nil:
		return ClientOther
	case i.UA.IsBot:
		return ClientBot
	case i.UA.Device != "Other" && i.UA.Browser != surfer.BrowserUnknown.String():
		return ClientBrowser
	default:
		return ClientOther
	}
}

type ctxKey struct{}

// FromContext returns the Info stored by the middleware, or nil.
func FromContext(ctx context.Context) *Info {
	v, _ := ctx.Value(ctxKey{}).(*Info)
	return v
}

// WithInfo returns ctx carrying info.
func WithInfo(ctx context.Context, info *Info) context.Context {
	return context.WithValue(ctx, ctxKey{}, info)
}

/*──────────────────────────── enricher ─────────────────────────────────────*/

// Enricher builds Info values.  The zero value parses user agents only.
type Enricher struct {
	geo *geoip2.Reader
}

// New opens the GeoLite2 database at geoPath.  An empty path disables
// country lookups.
func New(geoPath string) (*Enricher, error) {
	if geoPath == "" {
		return &Enricher{}, nil
	}
	r, err := geoip2.Open(geoPath)
	if err != nil {
		return nil, fmt.Errorf("open geoip db: %w", err)
	}
	return &Enricher{geo: r}, nil
}

// Close releases the GeoLite2 reader, if any.
func (e *Enricher) Close() error {
	if e.geo == nil {
		return nil
	}
	return e.geo.Close()
}

// Info parses ua and looks up ip.
func (e *Enricher) Info(ua string, ip net.IP) *Info {
	return &Info{
		UA:        ParseUA(ua),
		Geo:       e.lookup(ip),
		Timestamp: time.Now().UTC(),
	}
}

func (e *Enricher) lookup(ip net.IP) Geo {
	if e.geo == nil || ip == nil {
		return Geo{IP: ip}
	}
	rec, err := e.geo.Country(ip)
	if err != nil {
		return Geo{IP: ip}
	}
	return Geo{IP: ip, CountryISO: rec.Country.IsoCode}
}

/*──────────────────────────── UA parsing ───────────────────────────────────*/

// ParseUA converts a raw header into UA.
func ParseUA(raw string) UA {
	ua := surfer.Parse(raw)

	out := UA{
		Browser:   ua.Browser.Name.String(),
		Version:   versionToString(ua.Browser.Version),
		OS:        ua.OS.Name.String(),
		OSVersion: versionToString(ua.OS.Version),
		IsBot:     ua.IsBot(),
	}

	switch ua.DeviceType {
	case surfer.DeviceComputer:
		out.Device = "Desktop"
	case surfer.DeviceTablet:
		out.Device = "Tablet"
	case surfer.DevicePhone, surfer.DeviceWearable:
		out.Device = "Mobile"
	default:
		out.Device = "Other"
	}
	return out
}

// versionToString trims trailing zeros: 17.0.0 → "17", 17.3.0 → "17.3".
func versionToString(v surfer.Version) string {
	if v.Major == 0 && v.Minor == 0 && v.Patch == 0 {
		return ""
	}
	if v.Patch != 0 {
		return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	}
	if v.Minor != 0 {
		return fmt.Sprintf("%d.%d", v.Major, v.Minor)
	}
	return strconv.Itoa(v.Major)
}
