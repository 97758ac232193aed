package repository

import (
	"context"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"magiops_v1_202608/internal/model"
)

func setupSnapshotTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}
	if err := db.AutoMigrate(&model.DailySnapshot{}); err != nil {
		t.Fatalf("建表失败: %v", err)
	}
	return db
}

func TestSnapshotRepo_Upsert_SameDayOverwrites(t *testing.T) {
	db := setupSnapshotTestDB(t)
	repo := NewSnapshotRepository(db)
	ctx := context.Background()

	day := time.Date(2026, 8, 30, 15, 30, 0, 0, time.UTC)

	// 第一次写入
	if err := repo.Upsert(ctx, &model.DailySnapshot{
		AccountID:    1,
		SnapshotDate: day,
		SpendTotal:   100,
		AdCount:      5,
	}); err != nil {
		t.Fatalf("首次 Upsert 失败: %v", err)
	}

	// 同一天重跑：覆盖而不是新增
	if err := repo.Upsert(ctx, &model.DailySnapshot{
		AccountID:    1,
		SnapshotDate: day.Add(3 * time.Hour), // 同日不同时刻
		SpendTotal:   150,
		AdCount:      6,
	}); err != nil {
		t.Fatalf("二次 Upsert 失败: %v", err)
	}

	var count int64
	db.Model(&model.DailySnapshot{}).Count(&count)
	if count != 1 {
		t.Fatalf("快照条数 = %d, want 1", count)
	}

	snap, err := repo.GetByAccountAndDate(ctx, 1, day)
	if err != nil {
		t.Fatalf("GetByAccountAndDate() error = %v", err)
	}
	if snap.SpendTotal != 150 || snap.AdCount != 6 {
		t.Errorf("快照 = %.0f/%d, want 150/6（应为覆盖后的值）", snap.SpendTotal, snap.AdCount)
	}
}

func TestSnapshotRepo_Upsert_DifferentDaysAccumulate(t *testing.T) {
	db := setupSnapshotTestDB(t)
	repo := NewSnapshotRepository(db)
	ctx := context.Background()

	day1 := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)

	for _, d := range []time.Time{day1, day2} {
		if err := repo.Upsert(ctx, &model.DailySnapshot{AccountID: 1, SnapshotDate: d, SpendTotal: 10}); err != nil {
			t.Fatalf("Upsert(%s) 失败: %v", d.Format("2006-01-02"), err)
		}
	}
	// 不同账户同一天互不冲突
	if err := repo.Upsert(ctx, &model.DailySnapshot{AccountID: 2, SnapshotDate: day2, SpendTotal: 20}); err != nil {
		t.Fatalf("Upsert 账户2 失败: %v", err)
	}

	var count int64
	db.Model(&model.DailySnapshot{}).Count(&count)
	if count != 3 {
		t.Errorf("快照条数 = %d, want 3", count)
	}
}

func TestSnapshotRepo_ListByAccount_RangeAndOrder(t *testing.T) {
	db := setupSnapshotTestDB(t)
	repo := NewSnapshotRepository(db)
	ctx := context.Background()

	for day := 1; day <= 5; day++ {
		date := time.Date(2026, 8, day, 0, 0, 0, 0, time.UTC)
		if err := repo.Upsert(ctx, &model.DailySnapshot{AccountID: 1, SnapshotDate: date, SpendTotal: float64(day)}); err != nil {
			t.Fatalf("Upsert 失败: %v", err)
		}
	}

	from := time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 4, 0, 0, 0, 0, time.UTC)
	snaps, err := repo.ListByAccount(ctx, 1, from, to)
	if err != nil {
		t.Fatalf("ListByAccount() error = %v", err)
	}

	if len(snaps) != 3 {
		t.Fatalf("条数 = %d, want 3", len(snaps))
	}
	// 按日期升序
	for i := 1; i < len(snaps); i++ {
		if snaps[i].SnapshotDate.Before(snaps[i-1].SnapshotDate) {
			t.Error("快照未按日期升序排列")
		}
	}
}
