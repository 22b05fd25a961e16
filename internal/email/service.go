// Package email sends the sweep summary mail to operations.
package email

import (
	"fmt"
	"strings"

	"gopkg.in/gomail.v2"

	"github.com/rmaulana/rh-tracker-api/internal/config"
	"github.com/rmaulana/rh-tracker-api/internal/model"
	"github.com/rmaulana/rh-tracker-api/pkg/logger"
)

type Service struct {
	dialer *gomail.Dialer
	from   string
	to     string
	logger *logger.Logger
}

// NewService returns nil when SMTP is not configured; callers treat a nil
// service as "reporting disabled".
func NewService(cfg config.SMTPConfig, log *logger.Logger) *Service {
	if cfg.Host == "" || cfg.ReportTo == "" {
		return nil
	}
	return &Service{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
		to:     cfg.ReportTo,
		logger: log,
	}
}

// SendSweepSummary mails a plain-text digest of one sweep run.
func (s *Service) SendSweepSummary(report *model.SweepReport) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Ringkasan pengecekan RH otomatis\n\n")
	fmt.Fprintf(&b, "Status diperbarui: %d\n", report.StatusUpdated)
	fmt.Fprintf(&b, "Notifikasi wajib retur terkirim: %d\n", report.WarningSent)
	fmt.Fprintf(&b, "Notifikasi kadaluarsa terkirim: %d\n", report.ExpiredSent)
	fmt.Fprintf(&b, "Total notifikasi: %d\n", report.TotalNotifications)
	if len(report.Errors) > 0 {
		fmt.Fprintf(&b, "\nKesalahan (%d):\n", len(report.Errors))
		for _, e := range report.Errors {
			fmt.Fprintf(&b, "- %s\n", e)
		}
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", s.to)
	m.SetHeader("Subject", "Laporan Pengecekan RH Otomatis")
	m.SetBody("text/plain", b.String())

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send sweep summary: %w", err)
	}
	s.logger.Info("sweep summary mailed", "to", s.to)
	return nil
}
