package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type slotPlay struct {
	ID   uint
	Name string
}

func TestInstrumentDatabase(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, InstrumentDatabase(db))
	require.NoError(t, db.AutoMigrate(&slotPlay{}))

	before := testutil.CollectAndCount(DatabaseQueryLatency)

	require.NoError(t, db.Create(&slotPlay{Name: "gates of olympus"}).Error)

	var got slotPlay
	require.NoError(t, db.First(&got).Error)
	require.NoError(t, db.Model(&got).Update("name", "sweet bonanza").Error)
	require.NoError(t, db.Delete(&got).Error)

	// Each distinct operation/table pair adds a series to the histogram.
	assert.Greater(t, testutil.CollectAndCount(DatabaseQueryLatency), before)
}

func TestInstrumentDatabaseRejectsDoubleRegistration(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, InstrumentDatabase(db))
	assert.Error(t, InstrumentDatabase(db))
}
