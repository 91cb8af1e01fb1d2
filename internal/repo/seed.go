// Package repo – figure catalog seeding.
//
// SeedFigures populates the figures table on first boot so a fresh deployment
// has a working catalog without manual inserts. Existing rows are never
// modified; the seed only runs against an empty table.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/christianai/chat-backend/internal/domain"
)

func strptr(s string) *string { return &s }

// defaultFigures is the catalog installed on an empty database.
var defaultFigures = []domain.Figure{
	{Slug: "moses", DisplayName: "Moses", Description: "Prophet and lawgiver who led Israel out of Egypt and received the Ten Commandments at Sinai.", Category: strptr("prophet"), IsActive: true, PopularityScore: 100},
	{Slug: "david", DisplayName: "David", Description: "Shepherd, psalmist, and second king of Israel, remembered for his heart for God and his failures alike.", Category: strptr("king"), IsActive: true, PopularityScore: 95},
	{Slug: "paul", DisplayName: "Paul the Apostle", Description: "Former persecutor turned missionary whose letters shaped the early church across the Roman world.", Category: strptr("apostle"), IsActive: true, PopularityScore: 90},
	{Slug: "mary", DisplayName: "Mary of Nazareth", Description: "Mother of Jesus, whose quiet faithfulness carried her from the annunciation to the cross.", Category: strptr("disciple"), IsActive: true, PopularityScore: 85},
	{Slug: "peter", DisplayName: "Peter", Description: "Fisherman called to follow, who denied and was restored, and became a pillar of the early church.", Category: strptr("apostle"), IsActive: true, PopularityScore: 80},
	{Slug: "esther", DisplayName: "Esther", Description: "Queen of Persia who risked her life to save her people from destruction.", Category: strptr("queen"), IsActive: true, PopularityScore: 75},
	{Slug: "solomon", DisplayName: "Solomon", Description: "King renowned for wisdom, wealth, and the proverbs and songs attributed to him.", Category: strptr("king"), IsActive: true, RequiresPro: true, PopularityScore: 70},
	{Slug: "ruth", DisplayName: "Ruth", Description: "Moabite widow whose loyalty to Naomi placed her in the lineage of David.", Category: strptr("disciple"), IsActive: true, RequiresPro: true, PopularityScore: 65},
}

// SeedFigures inserts the default catalog when the figures table is empty.
func SeedFigures(ctx context.Context, db *gorm.DB) error {
	var count int64
	if err := db.WithContext(ctx).Model(&domain.Figure{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	figures := make([]domain.Figure, len(defaultFigures))
	copy(figures, defaultFigures)
	return db.WithContext(ctx).Create(&figures).Error
}
