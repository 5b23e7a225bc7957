// Package email sends transactional mail over plain SMTP. Messages are
// HTML-only and sent one at a time; callers treat failures as best-effort.
package email

import (
	"fmt"
	"net/smtp"
	"net/url"
)

// Service handles email sending via SMTP
type Service struct {
	host    string
	port    string
	from    string
	baseURL string
}

// NewService creates a new email service. baseURL is the public address
// embedded in mailed links.
func NewService(host, port, from, baseURL string) *Service {
	return &Service{
		host:    host,
		port:    port,
		from:    from,
		baseURL: baseURL,
	}
}

// SendEmailVerification mails the one-time verification link to a newly
// registered address.
func (s *Service) SendEmailVerification(to, name, userID, token string) error {
	link := fmt.Sprintf("%s/api/auth/verify-email?user_id=%s&token=%s",
		s.baseURL, url.QueryEscape(userID), url.QueryEscape(token))
	body := BuildVerifyEmailBody(name, link)
	return s.send(to, "Verify your email address", body)
}

// SendOrderConfirmation sends an order confirmation email
func (s *Service) SendOrderConfirmation(to, orderID string, total int, items []OrderItem) error {
	subject := fmt.Sprintf("Order confirmed (#%s)", shortID(orderID))
	body := BuildOrderConfirmationBody(orderID, total, items)
	return s.send(to, subject, body)
}

// SendOutbidNotice tells a bidder their bid is no longer the highest.
func (s *Service) SendOutbidNotice(to, auctionTitle string, yourBid, highestBid int) error {
	subject := fmt.Sprintf("You've been outbid on %q", auctionTitle)
	body := BuildOutbidBody(auctionTitle, yourBid, highestBid)
	return s.send(to, subject, body)
}

// SendAuctionWon congratulates the winner and asks them to complete checkout.
func (s *Service) SendAuctionWon(to, auctionTitle string, winningBid int) error {
	subject := fmt.Sprintf("You won the auction for %q", auctionTitle)
	body := BuildAuctionWonBody(auctionTitle, winningBid)
	return s.send(to, subject, body)
}

// SendRefundProcessed confirms a completed refund to the buyer.
func (s *Service) SendRefundProcessed(to, orderID string, total int) error {
	subject := fmt.Sprintf("Refund processed for order #%s", shortID(orderID))
	body := BuildRefundProcessedBody(orderID, total)
	return s.send(to, subject, body)
}

func (s *Service) send(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		s.from, to, subject, body)
	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	return smtp.SendMail(addr, nil, s.from, []string{to}, []byte(msg))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
