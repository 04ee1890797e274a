// Package model defines the seven closed analytics payload variants cached
// by the load engine. Field names are part of the cached JSON contract and
// must stay stable across runs.
package model

import (
	"time"

	"github.com/eden-redis/loadengine/internal/ids"
)

// AnalyticsOverview is a high-level dashboard summary, cheap to read and
// expensive to compute — the reason it is cached at all.
type AnalyticsOverview struct {
	OrganizationID ids.OrgID `json:"organization_id"`
	TotalEvents    int64     `json:"total_events"`
	UniqueUsers    int64     `json:"unique_users"`
	PageViews      int64     `json:"page_views"`
	Conversions    int64     `json:"conversions"`
	ConversionRate float64   `json:"conversion_rate"`
	TimePeriod     string    `json:"time_period"`
}

// HourlyMetrics is one hour-bucket of traffic for an organization.
type HourlyMetrics struct {
	OrganizationID ids.OrgID `json:"organization_id"`
	Hour           time.Time `json:"hour"`
	Events         int64     `json:"events"`
	UniqueUsers    int64     `json:"unique_users"`
	PageViews      int64     `json:"page_views"`
	Clicks         int64     `json:"clicks"`
	Conversions    int64     `json:"conversions"`
	Signups        int64     `json:"signups"`
	Purchases      int64     `json:"purchases"`
	Revenue        float64   `json:"revenue"`
}

// TopPage is one entry in a popular-pages ranking.
type TopPage struct {
	URL            string `json:"url"`
	Views          int64  `json:"views"`
	UniqueVisitors int64  `json:"unique_visitors"`
}

// EventTypeDistribution buckets events by kind for an organization.
type EventTypeDistribution struct {
	OrganizationID ids.OrgID `json:"organization_id"`
	PageViews      int64     `json:"page_views"`
	Clicks         int64     `json:"clicks"`
	Conversions    int64     `json:"conversions"`
	Signups        int64     `json:"signups"`
	Purchases      int64     `json:"purchases"`
	Total          int64     `json:"total"`
}

// UserActivity summarizes one user's recent behavior.
type UserActivity struct {
	UserID         ids.UserID `json:"user_id"`
	OrganizationID ids.OrgID  `json:"organization_id"`
	TotalEvents    int64      `json:"total_events"`
	LastSeen       time.Time  `json:"last_seen"`
	PageViews      int64      `json:"page_views"`
	Clicks         int64      `json:"clicks"`
	Conversions    int64      `json:"conversions"`
	LifetimeValue  float64    `json:"lifetime_value"`
}

// PagePerformance summarizes engagement for a single page URL.
type PagePerformance struct {
	OrganizationID ids.OrgID `json:"organization_id"`
	PageURL        string    `json:"page_url"`
	Views          int64     `json:"views"`
	UniqueVisitors int64     `json:"unique_visitors"`
	AvgTimeOnPage  float64   `json:"avg_time_on_page"`
	BounceRate     float64   `json:"bounce_rate"`
	Conversions    int64     `json:"conversions"`
}

// RealtimeStats is the live-dashboard snapshot; intentionally loose since
// it is regenerated every 60s.
type RealtimeStats struct {
	OrganizationID     ids.OrgID `json:"organization_id"`
	CurrentActiveUsers int64     `json:"current_active_users"`
	EventsLastMinute   int64     `json:"events_last_minute"`
	EventsLastHour     int64     `json:"events_last_hour"`
}

// EventType is the closed set of event kinds the event simulator classifies
// generated traffic into, per the 60/28/8/3/1 weighted multinomial.
type EventType string

const (
	EventPageView   EventType = "page_view"
	EventClick      EventType = "click"
	EventConversion EventType = "conversion"
	EventSignUp     EventType = "sign_up"
	EventPurchase   EventType = "purchase"
)

// String returns the wire representation used as a metric label.
func (e EventType) String() string { return string(e) }
