package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/sirupsen/logrus"

	"aura-protocol-go/internal/email"
	"aura-protocol-go/internal/failure"
	"aura-protocol-go/internal/income"
	"aura-protocol-go/internal/network"
	"aura-protocol-go/internal/store"
	"aura-protocol-go/internal/transaction"
)

const msgDuplicateEmail = "This email has already been used to verify income. Please use a different income email."

// Fallback domains for mail without a DKIM signing domain.
const (
	fallbackSourceDomain = "unknown.com"
	fallbackHashDomain   = "email.verified"
	fallbackDisplay      = "verified-email.com"
)

// Verify runs the income verification flow on raw email source and submits
// a verify_income transaction. Only the tier bracket and a domain hash leave
// the process; the parsed amount never does.
func (s *Service) Verify(ctx context.Context, raw string) (*store.VerificationResult, error) {
	const op = "verify income"

	done, err := s.store.BeginOperation(transaction.FnVerifyIncome)
	if err != nil {
		return nil, err
	}
	defer done()

	address, err := s.requireAddress(op)
	if err != nil {
		return nil, err
	}

	s.store.StartVerification()
	result, err := s.verify(ctx, address, raw)
	if err != nil {
		s.store.FailVerification(failure.Message(err))
		s.metrics.Verifications.WithLabelValues(failure.KindOf(err).String()).Inc()
		logrus.WithField("component", "service").WithError(err).Warn("Verification failed")
		return nil, err
	}

	s.store.CompleteVerification(result, result.TransactionID)
	s.metrics.Verifications.WithLabelValues("success").Inc()
	s.refreshAfter(ctx)
	return result, nil
}

func (s *Service) verify(ctx context.Context, address, raw string) (*store.VerificationResult, error) {
	log := logrus.WithField("component", "service")

	s.store.UpdateVerification(store.VerifyParsing, 5, "Validating input format...")
	src, err := email.ValidateSource(raw)
	if err != nil {
		return nil, err
	}

	sourceHash := hashSource(src)
	used, err := s.repo.IsEmailVerified(sourceHash)
	if err != nil {
		log.WithError(err).Warn("Failed to check used-email ledger")
	} else if used {
		return nil, failure.New(failure.KindDuplicate, "verify income", msgDuplicateEmail)
	}

	s.store.UpdateVerification(store.VerifyParsing, 15, "Parsing email headers...")
	parsed := email.Parse(src)

	s.store.UpdateVerification(store.VerifyParsing, 25, "Checking DKIM signature...")
	dkim := email.CheckDKIM(parsed.DKIM)
	log.WithFields(logrus.Fields{
		"domain":      parsed.Domain,
		"dkim":        dkim.Present,
		"well_formed": dkim.WellFormed,
	}).Debug("Parsed email")

	s.store.UpdateVerification(store.VerifyParsing, 35, "Extracting income data from email body...")
	body := email.TextBody(src, parsed)
	if body == "" {
		body = src
	}
	assessment, err := income.Assess(parsed.Subject, body)
	if err != nil {
		return nil, err
	}

	s.store.UpdateVerification(store.VerifyVerifying, 50, "Calculating income tier...")
	s.store.UpdateVerification(store.VerifyVerifying, 65, "Generating cryptographic commitment...")
	source := email.DetectSourceType(orDefault(parsed.Domain, fallbackSourceDomain), body)
	domainHash := email.HashDomain(orDefault(parsed.Domain, fallbackHashDomain))

	s.store.UpdateVerification(store.VerifyGenerating, 80, "Creating on-chain proof transaction...")
	req, err := s.builder.VerifyIncome(address, assessment.Tier, domainHash)
	if err != nil {
		return nil, err
	}

	s.store.UpdateVerification(store.VerifyMinting, 90, "Submitting transaction to the network...")
	txID, err := s.submit(ctx, req)
	if err != nil {
		return nil, err
	}
	s.store.SetVerificationTransaction(txID)

	if transaction.IsLedgerID(txID) {
		s.store.UpdateVerification(store.VerifyMinting, 95, "Waiting for confirmation...")
	} else {
		s.store.UpdateVerification(store.VerifyMinting, 95, "Transaction submitted to wallet...")
	}
	wait := s.waitFor(ctx, txID)
	if wait.Status == network.StatusRejected {
		return nil, failure.New(failure.KindUserRejected, "verify income", "Transaction was rejected by the network.")
	}

	if err := s.repo.MarkEmailVerified(sourceHash, assessment.Tier.String(), txID); err != nil {
		log.WithError(err).Warn("Failed to record used email")
	}

	verificationHash := email.VerificationHash(email.VerificationData{
		Domain:    parsed.Domain,
		Tier:      assessment.Tier.String(),
		Timestamp: s.now().UnixMilli(),
	})
	result := &store.VerificationResult{
		Tier:             assessment.Tier,
		Bracket:          assessment.Bracket,
		AnnualIncome:     assessment.AnnualIncome,
		Frequency:        assessment.FrequencyTag,
		Source:           source.Label,
		Domain:           orDefault(parsed.Domain, fallbackDisplay),
		DomainHash:       domainHash,
		VerificationHash: verificationHash,
		HasSignature:     parsed.HasSignature(),
		Confirmation:     string(wait.Status),
		TransactionID:    txID,
	}

	log.WithFields(logrus.Fields{
		"tier":   result.Tier.String(),
		"tx_id":  txID,
		"status": wait.Status,
	}).Info("Income verified")
	return result, nil
}

// VerifyMessage fetches a message from the mailbox and verifies it.
func (s *Service) VerifyMessage(ctx context.Context, messageID string) (*store.VerificationResult, error) {
	if s.mailbox == nil {
		return nil, failure.New(failure.KindValidation, "verify message", "Mailbox access is not configured.")
	}
	raw, err := s.mailbox.Raw(ctx, messageID)
	if err != nil {
		return nil, failure.Wrap(failure.KindNetwork, "fetch message", err)
	}
	return s.Verify(ctx, raw)
}

// Verification returns the progress of the verification flow.
func (s *Service) Verification() store.VerificationState {
	return s.store.Verification()
}

// ResetVerification returns the flow to idle. A running verification is
// left alone.
func (s *Service) ResetVerification() error {
	if s.store.Processing() == transaction.FnVerifyIncome {
		return failure.New(failure.KindBusy, "reset verification", "A verification is in progress.")
	}
	s.store.ResetVerification()
	return nil
}

func hashSource(src string) string {
	sum := sha256.Sum256([]byte(src))
	return hex.EncodeToString(sum[:])
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
