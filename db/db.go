package db

import (
	"fmt"

	"Gin_postgres_redis_library/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Config 统一的 gorm 配置；TranslateError 让唯一索引冲突变成 gorm.ErrDuplicatedKey
func Config() *gorm.Config {
	return &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	}
}

func ConnectDB(dsn string, log *zap.Logger) *gorm.DB {
	conn, err := gorm.Open(postgres.Open(dsn), Config())
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	if err := Migrate(conn); err != nil {
		log.Fatal("failed to migrate models", zap.Error(err))
	}
	log.Info("database connected")
	return conn
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Account{}, &models.Credential{}, &models.Invite{},
		&models.Book{}, &models.Customer{},
		&models.BorrowRecord{}, &models.Reservation{}, &models.Penalty{},
		&models.Notification{},
	); err != nil {
		return err
	}

	stmts := []string{
		// 同一顾客同一本书最多一条“未归还”
		fmt.Sprintf(`CREATE UNIQUE INDEX IF NOT EXISTS %s_one_open_per_customer_book
		  ON %s (customer_id, book_id) WHERE returned = false`, models.BorrowTable, models.BorrowTable),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_open_book_borrowdate
		  ON %s (book_id, borrow_date DESC) WHERE returned = false`, models.BorrowTable, models.BorrowTable),
		// 同一顾客同一本书最多一条 PENDING 预约
		fmt.Sprintf(`CREATE UNIQUE INDEX IF NOT EXISTS %s_one_pending_per_customer_book
		  ON %s (customer_id, book_id) WHERE status = 'PENDING'`, models.ReservationTable, models.ReservationTable),
		// 预约队列：按预约时间先到先得
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_pending_queue
		  ON %s (book_id, reservation_date) WHERE status = 'PENDING'`, models.ReservationTable, models.ReservationTable),
	}
	for _, s := range stmts {
		if err := db.Exec(s).Error; err != nil {
			return err
		}
	}
	return nil
}
