package sources

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/nyaruka/phonenumbers"
	"go.uber.org/zap"

	"github.com/trusthire/backend/internal/apiclient"
	"github.com/trusthire/backend/internal/storage/models"
)

const numverifyBaseURL = "https://apilayer.net/api/validate"

// Phone validates a contact number with libphonenumber data: format and
// region validity, toll-free detection, and a geo-consistency check
// against the stated location carried in the target hint. A NumVerify key
// adds a carrier lookup.
type Phone struct {
	api           *apiclient.Client
	numverifyKey  string
	numverifyURL  string
	defaultRegion string
	timeout       time.Duration
	logger        *zap.Logger
}

func NewPhone(numverifyKey, defaultRegion string, opts Options) *Phone {
	opts.fill()
	if defaultRegion == "" {
		defaultRegion = "US"
	}
	return &Phone{
		api:           opts.Client,
		numverifyKey:  numverifyKey,
		numverifyURL:  numverifyBaseURL,
		defaultRegion: defaultRegion,
		timeout:       opts.Timeout,
		logger:        opts.Logger,
	}
}

func (p *Phone) Source() models.SourceID   { return models.SourcePhoneCheck }
func (p *Phone) Category() models.Category { return models.CategoryContact }

func (p *Phone) Verify(ctx context.Context, target Target) models.EvidenceItem {
	item := newItem(models.SourcePhoneCheck, models.CategoryContact, target.Value)
	started := time.Now()

	ev := &models.PhoneEvidence{Input: target.Value}
	item.Phone = ev

	num, err := phonenumbers.Parse(target.Value, p.defaultRegion)
	if err != nil {
		p.logger.Warn("phone parse failed", zap.String("phone", target.Value), zap.Error(err))
		finish(&item, started, nil)
		return item
	}

	ev.Valid = phonenumbers.IsValidNumber(num)
	ev.E164 = phonenumbers.Format(num, phonenumbers.E164)
	ev.CountryCode = phonenumbers.GetRegionCodeForNumber(num)
	ev.TollFree = phonenumbers.GetNumberType(num) == phonenumbers.TOLL_FREE

	if region, err := phonenumbers.GetGeocodingForNumber(num, "en"); err == nil {
		ev.RegionHint = region
	}
	if carrier, err := phonenumbers.GetCarrierForNumber(num, "en"); err == nil && carrier != "" {
		ev.Carrier = carrier
	}

	if p.numverifyKey != "" && ev.Valid {
		p.lookupCarrier(ctx, ev)
	}

	if target.Hint != "" {
		ev.Geo = geoConsistency(ev, target.Hint)
	}

	item.Found = ev.Valid

	p.logger.Info("phone verification completed",
		zap.String("e164", ev.E164),
		zap.Bool("valid", ev.Valid),
		zap.Bool("toll_free", ev.TollFree),
		zap.String("region", ev.RegionHint),
	)
	finish(&item, started, nil)
	return item
}

type numverifyResponse struct {
	Valid   bool   `json:"valid"`
	Carrier string `json:"carrier"`
}

func (p *Phone) lookupCarrier(ctx context.Context, ev *models.PhoneEvidence) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	query := url.Values{}
	query.Set("access_key", p.numverifyKey)
	query.Set("number", ev.E164)

	var resp numverifyResponse
	_, err := p.api.GetJSON(ctx, apiclient.Request{
		Source:   string(models.SourcePhoneCheck),
		Category: "contact",
		URL:      p.numverifyURL,
		Query:    query,
	}, &resp)
	if err != nil {
		p.logger.Warn("numverify lookup failed", zap.Error(err))
		return
	}

	ev.Valid = ev.Valid && resp.Valid
	if resp.Carrier != "" {
		ev.Carrier = resp.Carrier
	}
}

// geoConsistency compares the number's region against the stated location.
// Toll-free numbers have no geography; claiming a local presence with one
// is recorded as a conflict.
func geoConsistency(ev *models.PhoneEvidence, statedLocation string) *models.GeoConsistency {
	geo := &models.GeoConsistency{StatedLocation: statedLocation}
	stated := strings.ToLower(statedLocation)

	if ev.CountryCode != "" {
		geo.CountryMatch = countryMatches(ev.CountryCode, stated)
	}

	if ev.RegionHint != "" {
		for _, word := range strings.Fields(strings.ToLower(ev.RegionHint)) {
			if len(word) > 2 && strings.Contains(stated, word) {
				geo.RegionMatch = true
				break
			}
		}
	}

	if ev.TollFree {
		geo.RegionMatch = false
		for _, term := range []string{"local", "area", "city"} {
			if strings.Contains(stated, term) {
				geo.TollFreeConflict = true
				break
			}
		}
	}
	return geo
}

// countryNames maps region codes to the names people actually write in a
// location line. Unlisted codes fall back to a whole-word match on the
// code itself, never a substring match ("DE" must not match "Denver").
var countryNames = map[string][]string{
	"US": {"united states", "usa", "u.s.", "america"},
	"GB": {"united kingdom", "uk", "england", "scotland", "wales", "britain"},
	"CA": {"canada"},
	"AU": {"australia"},
	"DE": {"germany"},
	"FR": {"france"},
	"IN": {"india"},
	"NL": {"netherlands"},
	"IE": {"ireland"},
	"BR": {"brazil"},
}

func countryMatches(regionCode, stated string) bool {
	for _, name := range countryNames[strings.ToUpper(regionCode)] {
		if containsWord(stated, name) {
			return true
		}
	}
	return containsWord(stated, strings.ToLower(regionCode))
}

// containsWord reports whether phrase occurs in s bounded by non-letters,
// so "india" does not hit inside "indianapolis". Both arguments are
// lowercase.
func containsWord(s, phrase string) bool {
	for from := 0; ; {
		i := strings.Index(s[from:], phrase)
		if i < 0 {
			return false
		}
		start := from + i
		end := start + len(phrase)
		if (start == 0 || !isLetterByte(s[start-1])) && (end == len(s) || !isLetterByte(s[end])) {
			return true
		}
		from = start + 1
	}
}

func isLetterByte(b byte) bool {
	return 'a' <= b && b <= 'z'
}
