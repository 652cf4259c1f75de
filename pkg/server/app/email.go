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

package app

import (
	"github.com/biblios/biblios/pkg/server/log"
	"github.com/biblios/biblios/pkg/server/mailer"
	pkgErrors "github.com/pkg/errors"
)

const noticeSender = "notices@biblios.local"

// SendOverdueNotice emails the member of one overdue loan. The member must
// have an email address on file.
func (a *App) SendOverdueNotice(ov OverdueLoan) error {
	if ov.Member.Email == "" {
		return pkgErrors.Errorf("member %d has no email address", ov.Member.ID)
	}

	data := mailer.OverdueNoticeTmplData{
		MemberName:  ov.Member.Name,
		BookTitle:   ov.Book.Title,
		DueDate:     ov.Loan.DueDate.Format("Jan 2, 2006"),
		DaysOverdue: ov.DaysOverdue,
		FineAmount:  ov.AccruedFine,
	}

	err := a.EmailBackend.SendEmail(mailer.EmailTypeOverdueNotice, noticeSender, []string{ov.Member.Email}, data)
	if err != nil {
		return pkgErrors.Wrap(err, "sending overdue notice")
	}

	return nil
}

// SendOverdueNotices emails every member with a loan at least minDays past
// due. Failures for individual members are logged and do not stop the rest
// of the batch. It returns the number of notices sent.
func (a *App) SendOverdueNotices(minDays int) (int, error) {
	overdue, err := a.Overdue(minDays)
	if err != nil {
		return 0, pkgErrors.Wrap(err, "listing overdue loans")
	}

	sent := 0
	for _, ov := range overdue {
		if err := a.SendOverdueNotice(ov); err != nil {
			log.WithFields(log.Fields{
				"loan_id":   ov.Loan.ID,
				"member_id": ov.Member.ID,
			}).ErrorWrap(err, "sending overdue notice")
			continue
		}
		sent++
	}

	return sent, nil
}
