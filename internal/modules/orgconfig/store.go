// Package orgconfig loads an organization's pricing configuration from
// PostgreSQL and persists quotes. The engine itself never touches storage;
// callers load a Bundle here and pass it by value.
package orgconfig

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"etoile/internal/modules/catalog"
	"etoile/internal/modules/pricing"
	"etoile/internal/modules/zones"
	"etoile/internal/types"
)

var ErrNotFound = errors.New("orgconfig: not found")

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// LoadBundle assembles the full pricing configuration for one organization:
// settings plus the zone and rate tables.
func (s *Store) LoadBundle(ctx context.Context, orgID types.ID) (pricing.Bundle, error) {
	var b pricing.Bundle

	var settings []byte
	err := s.db.QueryRow(ctx, `
		SELECT settings FROM organizations WHERE id = $1`, string(orgID),
	).Scan(&settings)
	if errors.Is(err, sql.ErrNoRows) {
		return b, ErrNotFound
	}
	if err != nil {
		return b, fmt.Errorf("load organization %s: %w", orgID, err)
	}
	if err := json.Unmarshal(settings, &b.Settings); err != nil {
		return b, fmt.Errorf("decode settings for %s: %w", orgID, err)
	}

	if b.Zones, err = s.loadZones(ctx, orgID); err != nil {
		return b, err
	}
	if b.VehicleCategories, err = s.loadVehicleCategories(ctx, orgID); err != nil {
		return b, err
	}
	if b.AdvancedRates, err = s.loadAdvancedRates(ctx, orgID); err != nil {
		return b, err
	}
	if b.SeasonalMultipliers, err = s.loadSeasonalMultipliers(ctx, orgID); err != nil {
		return b, err
	}
	return b, nil
}

func (s *Store) loadZones(ctx context.Context, orgID types.ID) ([]zones.Zone, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, code, name, geometry, polygon, center_lat, center_lng,
		       radius_km, price_multiplier, priority, is_central_zone, active
		FROM zones
		WHERE organization_id = $1
		ORDER BY priority DESC, id`, string(orgID),
	)
	if err != nil {
		return nil, fmt.Errorf("load zones: %w", err)
	}
	defer rows.Close()

	var out []zones.Zone
	for rows.Next() {
		var z zones.Zone
		var name sql.NullString
		var polygon []byte
		var radius sql.NullFloat64
		if err := rows.Scan(
			&z.ID, &z.Code, &name, &z.Geometry, &polygon, &z.Center.Lat, &z.Center.Lng,
			&radius, &z.PriceMultiplier, &z.Priority, &z.IsCentralZone, &z.Active,
		); err != nil {
			return nil, fmt.Errorf("scan zone: %w", err)
		}
		z.Name = name.String
		z.RadiusKm = radius.Float64
		if len(polygon) > 0 {
			if err := json.Unmarshal(polygon, &z.Polygon); err != nil {
				return nil, fmt.Errorf("decode polygon for zone %s: %w", z.ID, err)
			}
		}
		out = append(out, z)
	}
	return out, rows.Err()
}

func (s *Store) loadVehicleCategories(ctx context.Context, orgID types.ID) ([]pricing.VehicleCategory, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, price_multiplier, regulatory_class
		FROM vehicle_categories
		WHERE organization_id = $1
		ORDER BY id`, string(orgID),
	)
	if err != nil {
		return nil, fmt.Errorf("load vehicle categories: %w", err)
	}
	defer rows.Close()

	var out []pricing.VehicleCategory
	for rows.Next() {
		var c pricing.VehicleCategory
		if err := rows.Scan(&c.ID, &c.Name, &c.PriceMultiplier, &c.RegulatoryClass); err != nil {
			return nil, fmt.Errorf("scan vehicle category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) loadAdvancedRates(ctx context.Context, orgID types.ID) ([]pricing.AdvancedRate, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, label, kind, priority, adjustment, value, start_minute, end_minute, active
		FROM advanced_rates
		WHERE organization_id = $1
		ORDER BY priority DESC, id`, string(orgID),
	)
	if err != nil {
		return nil, fmt.Errorf("load advanced rates: %w", err)
	}
	defer rows.Close()

	var out []pricing.AdvancedRate
	for rows.Next() {
		var r pricing.AdvancedRate
		var label sql.NullString
		if err := rows.Scan(
			&r.ID, &label, &r.Kind, &r.Priority, &r.Adjustment, &r.Value,
			&r.StartMinute, &r.EndMinute, &r.Active,
		); err != nil {
			return nil, fmt.Errorf("scan advanced rate: %w", err)
		}
		r.Label = label.String
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) loadSeasonalMultipliers(ctx context.Context, orgID types.ID) ([]pricing.SeasonalMultiplier, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, label, date_from, date_to, multiplier, active
		FROM seasonal_multipliers
		WHERE organization_id = $1
		ORDER BY date_from, id`, string(orgID),
	)
	if err != nil {
		return nil, fmt.Errorf("load seasonal multipliers: %w", err)
	}
	defer rows.Close()

	var out []pricing.SeasonalMultiplier
	for rows.Next() {
		var m pricing.SeasonalMultiplier
		var label sql.NullString
		if err := rows.Scan(&m.ID, &label, &m.From, &m.To, &m.Multiplier, &m.Active); err != nil {
			return nil, fmt.Errorf("scan seasonal multiplier: %w", err)
		}
		m.Label = label.String
		out = append(out, m)
	}
	return out, rows.Err()
}

// LoadContact returns the contact and, for partners, their full contract.
func (s *Store) LoadContact(ctx context.Context, id types.ID) (catalog.Contact, error) {
	var c catalog.Contact
	err := s.db.QueryRow(ctx, `
		SELECT id, is_partner FROM contacts WHERE id = $1`, string(id),
	).Scan(&c.ID, &c.IsPartner)
	if errors.Is(err, sql.ErrNoRows) {
		return c, ErrNotFound
	}
	if err != nil {
		return c, fmt.Errorf("load contact %s: %w", id, err)
	}
	if !c.IsPartner {
		return c, nil
	}

	contract := &catalog.PartnerContract{}
	if contract.ZoneRoutes, err = s.loadZoneRoutes(ctx, id); err != nil {
		return c, err
	}
	if contract.ExcursionPackages, err = s.loadExcursionPackages(ctx, id); err != nil {
		return c, err
	}
	if contract.DispoPackages, err = s.loadDispoPackages(ctx, id); err != nil {
		return c, err
	}
	c.Contract = contract
	return c, nil
}

func (s *Store) loadZoneRoutes(ctx context.Context, contactID types.ID) ([]catalog.ZoneRoute, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, label, vehicle_category_id, direction, active,
		       origin_zone_id, destination_zone_id,
		       origin_zone_ids, destination_zone_ids,
		       origin_address, destination_address,
		       fixed_price
		FROM zone_routes
		WHERE contact_id = $1
		ORDER BY id`, string(contactID),
	)
	if err != nil {
		return nil, fmt.Errorf("load zone routes: %w", err)
	}
	defer rows.Close()

	var out []catalog.ZoneRoute
	for rows.Next() {
		var r catalog.ZoneRoute
		var label, originZone, destZone sql.NullString
		var originIDs, destIDs, originAddr, destAddr []byte
		if err := rows.Scan(
			&r.ID, &label, &r.VehicleCategoryID, &r.Direction, &r.Active,
			&originZone, &destZone, &originIDs, &destIDs, &originAddr, &destAddr,
			&r.FixedPrice,
		); err != nil {
			return nil, fmt.Errorf("scan zone route: %w", err)
		}
		r.Label = label.String
		r.OriginZoneID = types.ID(originZone.String)
		r.DestinationZoneID = types.ID(destZone.String)
		if err := decodeJSON(originIDs, &r.OriginZoneIDs); err != nil {
			return nil, fmt.Errorf("zone route %s origin zones: %w", r.ID, err)
		}
		if err := decodeJSON(destIDs, &r.DestinationZoneIDs); err != nil {
			return nil, fmt.Errorf("zone route %s destination zones: %w", r.ID, err)
		}
		if err := decodeJSON(originAddr, &r.OriginAddress); err != nil {
			return nil, fmt.Errorf("zone route %s origin address: %w", r.ID, err)
		}
		if err := decodeJSON(destAddr, &r.DestinationAddress); err != nil {
			return nil, fmt.Errorf("zone route %s destination address: %w", r.ID, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) loadExcursionPackages(ctx context.Context, contactID types.ID) ([]catalog.ExcursionPackage, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, label, vehicle_category_id, active, destination_zone_ids, fixed_price
		FROM excursion_packages
		WHERE contact_id = $1
		ORDER BY id`, string(contactID),
	)
	if err != nil {
		return nil, fmt.Errorf("load excursion packages: %w", err)
	}
	defer rows.Close()

	var out []catalog.ExcursionPackage
	for rows.Next() {
		var p catalog.ExcursionPackage
		var label sql.NullString
		var destIDs []byte
		if err := rows.Scan(&p.ID, &label, &p.VehicleCategoryID, &p.Active, &destIDs, &p.FixedPrice); err != nil {
			return nil, fmt.Errorf("scan excursion package: %w", err)
		}
		p.Label = label.String
		if err := decodeJSON(destIDs, &p.DestinationZoneIDs); err != nil {
			return nil, fmt.Errorf("excursion package %s destination zones: %w", p.ID, err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) loadDispoPackages(ctx context.Context, contactID types.ID) ([]catalog.DispoPackage, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, label, vehicle_category_id, active, duration_hours, fixed_price
		FROM dispo_packages
		WHERE contact_id = $1
		ORDER BY id`, string(contactID),
	)
	if err != nil {
		return nil, fmt.Errorf("load dispo packages: %w", err)
	}
	defer rows.Close()

	var out []catalog.DispoPackage
	for rows.Next() {
		var p catalog.DispoPackage
		var label sql.NullString
		if err := rows.Scan(&p.ID, &label, &p.VehicleCategoryID, &p.Active, &p.DurationHours, &p.FixedPrice); err != nil {
			return nil, fmt.Errorf("scan dispo package: %w", err)
		}
		p.Label = label.String
		out = append(out, p)
	}
	return out, rows.Err()
}

// Quote is a persisted engine call: the request and the full result, kept so
// an operator can reopen, explain, or override a past quote.
type Quote struct {
	ID             types.ID               `json:"id"`
	OrganizationID types.ID               `json:"organizationId"`
	ContactID      types.ID               `json:"contactId"`
	Request        pricing.PricingRequest `json:"request"`
	Result         pricing.PricingResult  `json:"result"`
	CreatedAt      time.Time              `json:"createdAt"`
	UpdatedAt      time.Time              `json:"updatedAt"`
}

func (s *Store) SaveQuote(ctx context.Context, q *Quote) error {
	request, err := json.Marshal(q.Request)
	if err != nil {
		return fmt.Errorf("encode quote request: %w", err)
	}
	result, err := json.Marshal(q.Result)
	if err != nil {
		return fmt.Errorf("encode quote result: %w", err)
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO quotes (id, organization_id, contact_id, request, result, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE
		SET result = EXCLUDED.result, updated_at = EXCLUDED.updated_at`,
		string(q.ID),
		string(q.OrganizationID),
		string(q.ContactID),
		request,
		result,
		q.CreatedAt,
		q.UpdatedAt,
	)
	return err
}

func (s *Store) GetQuote(ctx context.Context, id types.ID) (*Quote, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, organization_id, contact_id, request, result, created_at, updated_at
		FROM quotes
		WHERE id = $1`, string(id),
	)

	var q Quote
	var request, result []byte
	err := row.Scan(&q.ID, &q.OrganizationID, &q.ContactID, &request, &result, &q.CreatedAt, &q.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(request, &q.Request); err != nil {
		return nil, fmt.Errorf("decode quote request: %w", err)
	}
	if err := json.Unmarshal(result, &q.Result); err != nil {
		return nil, fmt.Errorf("decode quote result: %w", err)
	}
	return &q, nil
}

func decodeJSON(raw []byte, dst any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}
