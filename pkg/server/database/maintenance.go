/* Copyright 2025 Biblios Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"github.com/biblios/biblios/pkg/server/log"
	"github.com/robfig/cron"
	"gorm.io/gorm"
)

// WALCheckpoint truncates the SQLite write-ahead log so it does not grow
// unbounded under sustained writes
func WALCheckpoint(db *gorm.DB) error {
	return db.Exec("PRAGMA wal_checkpoint(TRUNCATE)").Error
}

// Vacuum reclaims space and defragments the database file
func Vacuum(db *gorm.DB) error {
	return db.Exec("VACUUM").Error
}

// StartMaintenance schedules periodic SQLite maintenance. These jobs keep
// the database file healthy; no business logic runs on a schedule.
func StartMaintenance(db *gorm.DB) *cron.Cron {
	c := cron.New()

	c.AddFunc("@every 5m", func() {
		if err := WALCheckpoint(db); err != nil {
			log.ErrorWrap(err, "checkpointing WAL")
		}
	})
	c.AddFunc("@every 24h", func() {
		if err := Vacuum(db); err != nil {
			log.ErrorWrap(err, "vacuuming database")
		}
	})

	c.Start()

	return c
}
