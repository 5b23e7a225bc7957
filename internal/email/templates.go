package email

import (
	"fmt"
	"strings"
)

// OrderItem represents an item in an order for email purposes
type OrderItem struct {
	ProductID string
	Name      string
	Quantity  int
	Price     int
}

// BuildOrderConfirmationBody builds the HTML body for order confirmation email
func BuildOrderConfirmationBody(orderID string, total int, items []OrderItem) string {
	var itemsHTML strings.Builder
	for _, item := range items {
		name := item.Name
		if name == "" {
			name = item.ProductID
		}
		itemsHTML.WriteString(fmt.Sprintf(
			`<tr>
				<td style="padding: 12px; border-bottom: 1px solid #eee;">%s</td>
				<td style="padding: 12px; border-bottom: 1px solid #eee; text-align: center;">%d</td>
				<td style="padding: 12px; border-bottom: 1px solid #eee; text-align: right;">ETB %s</td>
				<td style="padding: 12px; border-bottom: 1px solid #eee; text-align: right;">ETB %s</td>
			</tr>`,
			name,
			item.Quantity,
			formatNumber(item.Price),
			formatNumber(item.Price*item.Quantity),
		))
	}

	content := fmt.Sprintf(`<p style="margin-top: 0;">Thank you for your order. Your merchant has been notified and will dispatch it shortly.</p>

		<div style="background: #f8f9fa; padding: 15px; border-radius: 5px; margin: 20px 0;">
			<p style="margin: 0; font-size: 14px; color: #666;">Order number</p>
			<p style="margin: 5px 0 0 0; font-size: 18px; font-weight: bold; font-family: monospace;">%s</p>
		</div>

		<h2 style="font-size: 18px; border-bottom: 2px solid #667eea; padding-bottom: 10px;">Order details</h2>

		<table style="width: 100%%; border-collapse: collapse; margin: 20px 0;">
			<thead>
				<tr style="background: #f8f9fa;">
					<th style="padding: 12px; text-align: left; font-weight: 600;">Item</th>
					<th style="padding: 12px; text-align: center; font-weight: 600;">Qty</th>
					<th style="padding: 12px; text-align: right; font-weight: 600;">Unit price</th>
					<th style="padding: 12px; text-align: right; font-weight: 600;">Subtotal</th>
				</tr>
			</thead>
			<tbody>
				%s
			</tbody>
		</table>

		<div style="text-align: right; padding: 20px; background: #f8f9fa; border-radius: 5px;">
			<span style="font-size: 14px; color: #666;">Total</span>
			<span style="font-size: 24px; font-weight: bold; color: #667eea; margin-left: 10px;">ETB %s</span>
		</div>`,
		orderID, itemsHTML.String(), formatNumber(total))

	return wrapBody("Thank you for your order", content)
}

// BuildOutbidBody builds the HTML body for an outbid notification
func BuildOutbidBody(auctionTitle string, yourBid, highestBid int) string {
	content := fmt.Sprintf(`<p style="margin-top: 0;">Another bidder has placed a higher bid on <strong>%s</strong>.</p>

		<div style="background: #f8f9fa; padding: 15px; border-radius: 5px; margin: 20px 0;">
			<p style="margin: 0; font-size: 14px; color: #666;">Your bid</p>
			<p style="margin: 5px 0 0 0; font-size: 18px; font-weight: bold;">ETB %s</p>
			<p style="margin: 10px 0 0 0; font-size: 14px; color: #666;">Current highest bid</p>
			<p style="margin: 5px 0 0 0; font-size: 18px; font-weight: bold; color: #667eea;">ETB %s</p>
		</div>

		<p>Place a new bid before the auction closes to stay in the running.</p>`,
		auctionTitle, formatNumber(yourBid), formatNumber(highestBid))

	return wrapBody("You've been outbid", content)
}

// BuildAuctionWonBody builds the HTML body for an auction-won notification
func BuildAuctionWonBody(auctionTitle string, winningBid int) string {
	content := fmt.Sprintf(`<p style="margin-top: 0;">Congratulations! You placed the winning bid on <strong>%s</strong>.</p>

		<div style="text-align: right; padding: 20px; background: #f8f9fa; border-radius: 5px;">
			<span style="font-size: 14px; color: #666;">Winning bid</span>
			<span style="font-size: 24px; font-weight: bold; color: #667eea; margin-left: 10px;">ETB %s</span>
		</div>

		<p>Complete checkout from your account to arrange payment and delivery.</p>`,
		auctionTitle, formatNumber(winningBid))

	return wrapBody("You won the auction", content)
}

// BuildRefundProcessedBody builds the HTML body for a refund confirmation
func BuildRefundProcessedBody(orderID string, total int) string {
	content := fmt.Sprintf(`<p style="margin-top: 0;">Your refund has been processed and the amount returned to your original payment method.</p>

		<div style="background: #f8f9fa; padding: 15px; border-radius: 5px; margin: 20px 0;">
			<p style="margin: 0; font-size: 14px; color: #666;">Order number</p>
			<p style="margin: 5px 0 0 0; font-size: 18px; font-weight: bold; font-family: monospace;">%s</p>
			<p style="margin: 10px 0 0 0; font-size: 14px; color: #666;">Refunded amount</p>
			<p style="margin: 5px 0 0 0; font-size: 18px; font-weight: bold; color: #667eea;">ETB %s</p>
		</div>`,
		orderID, formatNumber(total))

	return wrapBody("Refund processed", content)
}

// BuildVerifyEmailBody builds the HTML body for the email verification mail
func BuildVerifyEmailBody(name, verifyURL string) string {
	greeting := "Welcome"
	if name != "" {
		greeting = fmt.Sprintf("Welcome, %s", name)
	}
	content := fmt.Sprintf(`<p style="margin-top: 0;">%s! Confirm your email address to start placing orders.</p>

		<div style="text-align: center; margin: 30px 0;">
			<a href="%s" style="background: #667eea; color: white; padding: 14px 28px; border-radius: 5px; text-decoration: none; font-weight: 600;">Verify email address</a>
		</div>

		<p style="font-size: 14px; color: #666;">If the button does not work, copy this link into your browser:</p>
		<p style="font-size: 12px; font-family: monospace; word-break: break-all;">%s</p>

		<p style="font-size: 14px; color: #666;">If you did not create an account, you can ignore this message.</p>`,
		greeting, verifyURL, verifyURL)

	return wrapBody("Verify your email", content)
}

// wrapBody wraps section content in the shared email chrome
func wrapBody(heading, content string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
	<div style="background: linear-gradient(135deg, #667eea 0%%, #764ba2 100%%); padding: 30px; border-radius: 10px 10px 0 0;">
		<h1 style="color: white; margin: 0; font-size: 24px;">%s</h1>
	</div>

	<div style="background: #fff; padding: 30px; border: 1px solid #eee; border-top: none; border-radius: 0 0 10px 10px;">
		%s

		<hr style="border: none; border-top: 1px solid #eee; margin: 30px 0;">

		<p style="font-size: 12px; color: #999; margin-bottom: 0;">
			This is an automated message. If you have any questions, please contact support.
		</p>
	</div>
</body>
</html>`, heading, content)
}

// formatNumber formats a number with comma separators
func formatNumber(n int) string {
	str := fmt.Sprintf("%d", n)
	if len(str) <= 3 {
		return str
	}

	var result strings.Builder
	remainder := len(str) % 3
	if remainder > 0 {
		result.WriteString(str[:remainder])
		if len(str) > remainder {
			result.WriteString(",")
		}
	}

	for i := remainder; i < len(str); i += 3 {
		result.WriteString(str[i : i+3])
		if i+3 < len(str) {
			result.WriteString(",")
		}
	}

	return result.String()
}
