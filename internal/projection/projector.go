package projection

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/example/marketplace/internal/domain/ad"
	"github.com/example/marketplace/internal/domain/auction"
	"github.com/example/marketplace/internal/domain/cart"
	"github.com/example/marketplace/internal/domain/category"
	"github.com/example/marketplace/internal/domain/inventory"
	"github.com/example/marketplace/internal/domain/order"
	"github.com/example/marketplace/internal/domain/product"
	"github.com/example/marketplace/internal/domain/user"
	"github.com/example/marketplace/internal/infrastructure/store"
	"github.com/example/marketplace/internal/readmodel"
)

// Projector consumes domain events and maintains the read models the query
// side serves.
type Projector struct {
	readStore store.ReadStoreInterface
}

func NewProjector(readStore store.ReadStoreInterface) *Projector {
	return &Projector{readStore: readStore}
}

func (p *Projector) HandleEvent(ctx context.Context, key, value []byte) error {
	var event store.Event
	if err := json.Unmarshal(value, &event); err != nil {
		return err
	}

	log.Printf("[Projector] Received event: %s (aggregate: %s)", event.EventType, event.AggregateType)

	switch event.AggregateType {
	case product.AggregateType:
		return p.handleProductEvent(event)
	case inventory.AggregateType:
		return p.handleInventoryEvent(event)
	case cart.AggregateType:
		return p.handleCartEvent(event)
	case order.AggregateType:
		return p.handleOrderEvent(event)
	case user.AggregateType:
		return p.handleUserEvent(event)
	case category.AggregateType:
		return p.handleCategoryEvent(event)
	case auction.AggregateType:
		return p.handleAuctionEvent(event)
	case ad.AggregateType:
		return p.handleAdEvent(event)
	}

	return nil
}

func (p *Projector) handleProductEvent(event store.Event) error {
	switch event.EventType {
	case product.EventProductCreated:
		var e product.ProductCreated
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Set(readmodel.Products, e.ProductID, &readmodel.ProductReadModel{
			ID:            e.ProductID,
			MerchantID:    e.MerchantID,
			Name:          e.Name,
			Description:   e.Description,
			CategoryID:    e.CategoryID,
			CategoryName:  e.CategoryName,
			Brand:         e.Brand,
			Price:         e.Price,
			Stock:         e.InitialStock,
			Images:        e.Images,
			WeightKg:      e.WeightKg,
			DeliveryMode:  string(e.Delivery.Mode),
			DeliveryPrice: e.Delivery.BasePrice,
			KgPerBracket:  e.Delivery.KgPerBracket,
			KmPerBracket:  e.Delivery.KmPerBracket,
			Coordinates:   e.Location.Coordinates,
			CreatedAt:     e.CreatedAt,
			UpdatedAt:     e.CreatedAt,
		})

	case product.EventProductUpdated:
		var e product.ProductUpdated
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Update(readmodel.Products, e.ProductID, func(current any) any {
			prod := current.(*readmodel.ProductReadModel)
			if e.Name != nil {
				prod.Name = *e.Name
			}
			if e.Description != nil {
				prod.Description = *e.Description
			}
			if e.Brand != nil {
				prod.Brand = *e.Brand
			}
			if e.Price != nil {
				prod.Price = *e.Price
			}
			if e.OfferPrice != nil {
				prod.OfferPrice = *e.OfferPrice
			}
			if e.Images != nil {
				prod.Images = e.Images
			}
			if e.WeightKg != nil {
				prod.WeightKg = *e.WeightKg
			}
			if e.Delivery != nil {
				prod.DeliveryMode = string(e.Delivery.Mode)
				prod.DeliveryPrice = e.Delivery.BasePrice
				prod.KgPerBracket = e.Delivery.KgPerBracket
				prod.KmPerBracket = e.Delivery.KmPerBracket
			}
			if e.Location != nil {
				prod.Coordinates = e.Location.Coordinates
			}
			prod.UpdatedAt = e.UpdatedAt
			return prod
		})

	case product.EventProductDeleted:
		var e product.ProductDeleted
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Delete(readmodel.Products, e.ProductID)

	case product.EventProductBanned:
		var e product.ProductBanned
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Update(readmodel.Products, e.ProductID, func(current any) any {
			prod := current.(*readmodel.ProductReadModel)
			prod.Banned = true
			prod.BanReason = e.Reason
			prod.UpdatedAt = e.BannedAt
			return prod
		})

	case product.EventProductUnbanned:
		var e product.ProductUnbanned
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Update(readmodel.Products, e.ProductID, func(current any) any {
			prod := current.(*readmodel.ProductReadModel)
			prod.Banned = false
			prod.BanReason = ""
			prod.UpdatedAt = e.UnbannedAt
			return prod
		})

	case product.EventProductReviewed:
		var e product.ProductReviewed
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Update(readmodel.Products, e.ProductID, func(current any) any {
			prod := current.(*readmodel.ProductReadModel)
			prod.Reviews = append(prod.Reviews, readmodel.ProductReviewReadModel{
				UserID:    e.UserID,
				UserName:  e.UserName,
				Rating:    e.Rating,
				Comment:   e.Comment,
				CreatedAt: e.CreatedAt,
			})
			sum := 0
			for _, r := range prod.Reviews {
				sum += r.Rating
			}
			prod.ReviewCount = len(prod.Reviews)
			prod.Rating = float64(sum) / float64(prod.ReviewCount)
			prod.UpdatedAt = e.CreatedAt
			return prod
		})
	}

	return nil
}

func (p *Projector) handleInventoryEvent(event store.Event) error {
	switch event.EventType {
	case inventory.EventStockSet:
		var e inventory.StockSet
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Set(readmodel.Inventory, e.ProductID, &readmodel.InventoryReadModel{
			ProductID: e.ProductID,
			Stock:     e.Quantity,
			UpdatedAt: e.SetAt,
		})
		p.readStore.Update(readmodel.Products, e.ProductID, func(current any) any {
			prod := current.(*readmodel.ProductReadModel)
			prod.Stock = e.Quantity
			prod.UpdatedAt = e.SetAt
			return prod
		})

	case inventory.EventStockDeducted:
		var e inventory.StockDeducted
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.adjustStock(e.ProductID, -e.Quantity, e.DeductedAt)

	case inventory.EventStockRestored:
		var e inventory.StockRestored
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.adjustStock(e.ProductID, e.Quantity, e.RestoredAt)
	}

	return nil
}

func (p *Projector) adjustStock(productID string, delta int, at time.Time) {
	p.readStore.Update(readmodel.Inventory, productID, func(current any) any {
		inv := current.(*readmodel.InventoryReadModel)
		inv.Stock += delta
		if inv.Stock < 0 {
			inv.Stock = 0
		}
		inv.UpdatedAt = at
		return inv
	})
	p.readStore.Update(readmodel.Products, productID, func(current any) any {
		prod := current.(*readmodel.ProductReadModel)
		prod.Stock += delta
		if prod.Stock < 0 {
			prod.Stock = 0
		}
		prod.UpdatedAt = at
		return prod
	})
}

func (p *Projector) handleCartEvent(event store.Event) error {
	switch event.EventType {
	case cart.EventItemAdded:
		var e cart.ItemAddedToCart
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		if _, ok := p.readStore.Get(readmodel.Carts, e.CartID); !ok {
			p.readStore.Set(readmodel.Carts, e.CartID, &readmodel.CartReadModel{
				ID:     e.CartID,
				UserID: e.UserID,
				Items: []readmodel.CartItemReadModel{
					{ProductID: e.ProductID, MerchantID: e.MerchantID, Name: e.ProductName, Quantity: e.Quantity, Price: e.Price},
				},
				Total: e.Price * e.Quantity,
			})
			return nil
		}
		p.readStore.Update(readmodel.Carts, e.CartID, func(current any) any {
			c := current.(*readmodel.CartReadModel)
			found := false
			for i, item := range c.Items {
				if item.ProductID == e.ProductID {
					c.Items[i].Quantity += e.Quantity
					c.Items[i].Price = e.Price
					found = true
					break
				}
			}
			if !found {
				c.Items = append(c.Items, readmodel.CartItemReadModel{
					ProductID:  e.ProductID,
					MerchantID: e.MerchantID,
					Name:       e.ProductName,
					Quantity:   e.Quantity,
					Price:      e.Price,
				})
			}
			c.Total = calculateCartTotal(c.Items)
			return c
		})

	case cart.EventQuantityChanged:
		var e cart.CartQuantityChanged
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Update(readmodel.Carts, e.CartID, func(current any) any {
			c := current.(*readmodel.CartReadModel)
			for i, item := range c.Items {
				if item.ProductID == e.ProductID {
					c.Items[i].Quantity = e.Quantity
					break
				}
			}
			c.Total = calculateCartTotal(c.Items)
			return c
		})

	case cart.EventItemRemoved:
		var e cart.ItemRemovedFromCart
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Update(readmodel.Carts, e.CartID, func(current any) any {
			c := current.(*readmodel.CartReadModel)
			newItems := make([]readmodel.CartItemReadModel, 0, len(c.Items))
			for _, item := range c.Items {
				if item.ProductID != e.ProductID {
					newItems = append(newItems, item)
				}
			}
			c.Items = newItems
			c.Total = calculateCartTotal(c.Items)
			return c
		})

	case cart.EventCartCleared:
		var e cart.CartCleared
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Set(readmodel.Carts, e.CartID, &readmodel.CartReadModel{
			ID:     e.CartID,
			UserID: e.UserID,
			Items:  []readmodel.CartItemReadModel{},
			Total:  0,
		})
	}

	return nil
}

func calculateCartTotal(items []readmodel.CartItemReadModel) int {
	total := 0
	for _, item := range items {
		total += item.Price * item.Quantity
	}
	return total
}

func (p *Projector) handleOrderEvent(event store.Event) error {
	switch event.EventType {
	case order.EventOrderPlaced:
		var e order.OrderPlaced
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		lines := make([]readmodel.OrderLineReadModel, len(e.Lines))
		for i, line := range e.Lines {
			lines[i] = readmodel.OrderLineReadModel{
				ProductID:     line.ProductID,
				ProductName:   line.ProductName,
				Quantity:      line.Quantity,
				Price:         line.Price,
				Delivery:      string(line.Delivery),
				DeliveryPrice: line.DeliveryPrice,
			}
		}
		model := &readmodel.OrderReadModel{
			ID:             e.OrderID,
			CustomerID:     e.Customer.CustomerID,
			CustomerName:   e.Customer.Name,
			CustomerPhone:  e.Customer.Phone,
			CustomerEmail:  e.Customer.Email,
			CustomerState:  e.Customer.State,
			CustomerCity:   e.Customer.City,
			MerchantID:     e.Merchant.MerchantID,
			MerchantName:   e.Merchant.Name,
			Lines:          lines,
			Total:          e.TotalPrice,
			Status:         string(order.StatusPending),
			PaymentStatus:  string(order.PaymentPending),
			TransactionRef: e.TransactionRef,
			CreatedAt:      e.PlacedAt,
			UpdatedAt:      e.PlacedAt,
		}
		if e.Auction != nil {
			model.AuctionID = e.Auction.AuctionID
		}
		p.readStore.Set(readmodel.Orders, e.OrderID, model)

	case order.EventShippingDetailsUpdated:
		var e order.ShippingDetailsUpdated
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Update(readmodel.Orders, e.OrderID, func(current any) any {
			o := current.(*readmodel.OrderReadModel)
			o.CustomerName = e.Customer.Name
			o.CustomerPhone = e.Customer.Phone
			o.CustomerEmail = e.Customer.Email
			o.CustomerState = e.Customer.State
			o.CustomerCity = e.Customer.City
			o.UpdatedAt = e.UpdatedAt
			return o
		})

	case order.EventOrderDispatched:
		var e order.OrderDispatched
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.setOrderStatus(e.OrderID, string(order.StatusDispatched), e.DispatchedAt)

	case order.EventOrderReceived:
		var e order.OrderReceived
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.setOrderStatus(e.OrderID, string(order.StatusReceived), e.ReceivedAt)

	case order.EventPaymentConfirmed:
		var e order.PaymentConfirmed
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Update(readmodel.Orders, e.OrderID, func(current any) any {
			o := current.(*readmodel.OrderReadModel)
			o.PaymentStatus = string(order.PaymentPaid)
			o.ChapaRef = e.ChapaRef
			o.UpdatedAt = e.PaidAt
			return o
		})

	case order.EventRefundRequested:
		var e order.RefundRequested
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Update(readmodel.Orders, e.OrderID, func(current any) any {
			o := current.(*readmodel.OrderReadModel)
			o.PaymentStatus = string(order.PaymentPendingRefund)
			o.RefundReason = e.Reason
			o.UpdatedAt = e.RequestedAt
			return o
		})

	case order.EventRefundCompleted:
		var e order.RefundCompleted
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.setOrderPayment(e.OrderID, string(order.PaymentRefunded), e.CompletedAt)

	case order.EventMerchantPaid:
		var e order.MerchantPaid
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.setOrderPayment(e.OrderID, string(order.PaymentPaidToMerchant), e.PaidAt)

	case order.EventOrderDeleted:
		var e order.OrderDeleted
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Delete(readmodel.Orders, e.OrderID)
	}

	return nil
}

func (p *Projector) setOrderStatus(orderID, status string, at time.Time) {
	p.readStore.Update(readmodel.Orders, orderID, func(current any) any {
		o := current.(*readmodel.OrderReadModel)
		o.Status = status
		o.UpdatedAt = at
		return o
	})
}

func (p *Projector) setOrderPayment(orderID, paymentStatus string, at time.Time) {
	p.readStore.Update(readmodel.Orders, orderID, func(current any) any {
		o := current.(*readmodel.OrderReadModel)
		o.PaymentStatus = paymentStatus
		o.UpdatedAt = at
		return o
	})
}

func (p *Projector) handleUserEvent(event store.Event) error {
	switch event.EventType {
	case user.EventUserCreated:
		var e user.UserCreated
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Set(readmodel.Users, e.UserID, &readmodel.UserReadModel{
			ID:           e.UserID,
			Email:        e.Email,
			PasswordHash: e.PasswordHash,
			Name:         e.Name,
			Role:         e.Role,
			Phone:        e.Phone,
			State:        e.State,
			City:         e.City,
			IsActive:     true,
			CreatedAt:    e.CreatedAt,
			UpdatedAt:    e.CreatedAt,
		})

	case user.EventUserEmailVerified:
		var e user.UserEmailVerified
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Update(readmodel.Users, e.UserID, func(current any) any {
			u := current.(*readmodel.UserReadModel)
			u.EmailVerified = true
			u.UpdatedAt = e.VerifiedAt
			return u
		})

	case user.EventUserUpdated:
		var e user.UserUpdated
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Update(readmodel.Users, e.UserID, func(current any) any {
			u := current.(*readmodel.UserReadModel)
			if e.Name != "" {
				u.Name = e.Name
			}
			if e.Phone != "" {
				u.Phone = e.Phone
			}
			if e.State != "" {
				u.State = e.State
			}
			if e.City != "" {
				u.City = e.City
			}
			u.UpdatedAt = e.UpdatedAt
			return u
		})

	case user.EventBankDetailsUpdated:
		var e user.BankDetailsUpdated
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Update(readmodel.Users, e.UserID, func(current any) any {
			u := current.(*readmodel.UserReadModel)
			u.AccountName = e.AccountName
			u.AccountNumber = e.AccountNumber
			u.BankCode = e.BankCode
			u.UpdatedAt = e.UpdatedAt
			return u
		})

	case user.EventUserPasswordChanged:
		var e user.UserPasswordChanged
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Update(readmodel.Users, e.UserID, func(current any) any {
			u := current.(*readmodel.UserReadModel)
			u.PasswordHash = e.PasswordHash
			u.UpdatedAt = e.ChangedAt
			return u
		})

	case user.EventUserDeactivated:
		var e user.UserDeactivated
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Update(readmodel.Users, e.UserID, func(current any) any {
			u := current.(*readmodel.UserReadModel)
			u.IsActive = false
			return u
		})

	case user.EventUserActivated:
		var e user.UserActivated
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Update(readmodel.Users, e.UserID, func(current any) any {
			u := current.(*readmodel.UserReadModel)
			u.IsActive = true
			return u
		})

	case user.EventUserPromoted:
		var e user.UserPromoted
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Update(readmodel.Users, e.UserID, func(current any) any {
			u := current.(*readmodel.UserReadModel)
			u.Role = user.RoleMerchant
			u.AccountName = e.AccountName
			u.AccountNumber = e.AccountNumber
			u.BankCode = e.BankCode
			u.UpdatedAt = e.PromotedAt
			return u
		})
	}

	return nil
}

func (p *Projector) handleCategoryEvent(event store.Event) error {
	switch event.EventType {
	case category.EventCategoryCreated:
		var e category.CategoryCreated
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Set(readmodel.Categories, e.CategoryID, &readmodel.CategoryReadModel{
			ID:          e.CategoryID,
			Name:        e.Name,
			Slug:        e.Slug,
			Description: e.Description,
			Image:       e.Image,
			IsActive:    true,
			CreatedAt:   e.CreatedAt,
			UpdatedAt:   e.CreatedAt,
		})

	case category.EventCategoryUpdated:
		var e category.CategoryUpdated
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Update(readmodel.Categories, e.CategoryID, func(current any) any {
			c := current.(*readmodel.CategoryReadModel)
			c.Name = e.Name
			c.Slug = e.Slug
			c.Description = e.Description
			c.Image = e.Image
			c.UpdatedAt = e.UpdatedAt
			return c
		})

	case category.EventCategoryDeleted:
		var e category.CategoryDeleted
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Delete(readmodel.Categories, e.CategoryID)
	}

	return nil
}

func (p *Projector) handleAuctionEvent(event store.Event) error {
	switch event.EventType {
	case auction.EventAuctionCreated:
		var e auction.AuctionCreated
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Set(readmodel.Auctions, e.AuctionID, &readmodel.AuctionReadModel{
			ID:            e.AuctionID,
			MerchantID:    e.MerchantID,
			MerchantName:  e.MerchantName,
			Title:         e.Title,
			Description:   e.Description,
			CategoryID:    e.CategoryID,
			Condition:     e.Condition,
			Images:        e.Images,
			StartingPrice: e.StartingPrice,
			ReservedPrice: e.ReservedPrice,
			BidIncrement:  e.BidIncrement,
			Delivery:      e.Delivery,
			DeliveryPrice: e.DeliveryPrice,
			StartTime:     e.StartTime,
			EndTime:       e.EndTime,
			Status:        string(auction.StatusPending),
			Approval:      string(auction.ApprovalPending),
			CreatedAt:     e.CreatedAt,
			UpdatedAt:     e.CreatedAt,
		})

	case auction.EventAuctionApproved:
		var e auction.AuctionApproved
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Update(readmodel.Auctions, e.AuctionID, func(current any) any {
			a := current.(*readmodel.AuctionReadModel)
			a.Approval = string(auction.ApprovalApproved)
			a.UpdatedAt = e.ApprovedAt
			return a
		})

	case auction.EventAuctionRejected:
		var e auction.AuctionRejected
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Update(readmodel.Auctions, e.AuctionID, func(current any) any {
			a := current.(*readmodel.AuctionReadModel)
			a.Approval = string(auction.ApprovalRejected)
			a.RejectReason = e.Reason
			a.Status = string(auction.StatusCancelled)
			a.UpdatedAt = e.RejectedAt
			return a
		})

	case auction.EventAuctionCancelled:
		var e auction.AuctionCancelled
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Update(readmodel.Auctions, e.AuctionID, func(current any) any {
			a := current.(*readmodel.AuctionReadModel)
			a.Status = string(auction.StatusCancelled)
			a.UpdatedAt = e.CancelledAt
			return a
		})

	case auction.EventAuctionActivated:
		var e auction.AuctionActivated
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Update(readmodel.Auctions, e.AuctionID, func(current any) any {
			a := current.(*readmodel.AuctionReadModel)
			a.Status = string(auction.StatusActive)
			a.UpdatedAt = e.ActivatedAt
			return a
		})

	case auction.EventBidPlaced:
		var e auction.BidPlaced
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		// One bid row per bidder per auction; a re-bid overwrites.
		p.readStore.Set(readmodel.Bids, e.AuctionID+":"+e.BidderID, &readmodel.BidReadModel{
			ID:         e.BidID,
			AuctionID:  e.AuctionID,
			BidderID:   e.BidderID,
			BidderName: e.BidderName,
			Amount:     e.Amount,
			Status:     auction.BidActive,
			PlacedAt:   e.PlacedAt,
		})
		if e.PreviousBidderID != "" {
			p.readStore.Update(readmodel.Bids, e.AuctionID+":"+e.PreviousBidderID, func(current any) any {
				b := current.(*readmodel.BidReadModel)
				b.Status = auction.BidOutbid
				return b
			})
		}
		p.readStore.Update(readmodel.Auctions, e.AuctionID, func(current any) any {
			a := current.(*readmodel.AuctionReadModel)
			a.BidCount++
			a.HighestBid = e.Amount
			a.HighestBidder = e.BidderID
			a.UpdatedAt = e.PlacedAt
			return a
		})

	case auction.EventAuctionEnded:
		var e auction.AuctionEnded
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Update(readmodel.Auctions, e.AuctionID, func(current any) any {
			a := current.(*readmodel.AuctionReadModel)
			a.Status = string(auction.StatusEnded)
			a.WinnerID = e.WinnerID
			a.WinningBid = e.WinningBid
			a.UpdatedAt = e.EndedAt
			return a
		})
		if e.ReserveMet && e.WinnerID != "" {
			p.readStore.Update(readmodel.Bids, e.AuctionID+":"+e.WinnerID, func(current any) any {
				b := current.(*readmodel.BidReadModel)
				b.Status = auction.BidWon
				return b
			})
		}
	}

	return nil
}

func (p *Projector) handleAdEvent(event store.Event) error {
	switch event.EventType {
	case ad.EventAdCreated:
		var e ad.AdCreated
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Set(readmodel.Ads, e.AdID, &readmodel.AdReadModel{
			ID:             e.AdID,
			MerchantID:     e.MerchantID,
			ProductID:      e.ProductID,
			ProductName:    e.ProductName,
			Image:          e.Image,
			Region:         e.Region,
			Price:          e.Price,
			TransactionRef: e.TransactionRef,
			Approval:       string(ad.ApprovalPending),
			Payment:        string(ad.PaymentPending),
			StartsAt:       e.StartsAt,
			EndsAt:         e.EndsAt,
			CreatedAt:      e.CreatedAt,
			UpdatedAt:      e.CreatedAt,
		})

	case ad.EventAdApproved:
		var e ad.AdApproved
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Update(readmodel.Ads, e.AdID, func(current any) any {
			a := current.(*readmodel.AdReadModel)
			a.Approval = string(ad.ApprovalApproved)
			a.UpdatedAt = e.ApprovedAt
			return a
		})

	case ad.EventAdRejected:
		var e ad.AdRejected
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Update(readmodel.Ads, e.AdID, func(current any) any {
			a := current.(*readmodel.AdReadModel)
			a.Approval = string(ad.ApprovalRejected)
			a.RejectReason = e.Reason
			a.UpdatedAt = e.RejectedAt
			return a
		})

	case ad.EventAdPaymentResult:
		var e ad.AdPaymentResult
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Update(readmodel.Ads, e.AdID, func(current any) any {
			a := current.(*readmodel.AdReadModel)
			if e.Paid {
				a.Payment = string(ad.PaymentPaid)
			} else {
				a.Payment = string(ad.PaymentFailed)
			}
			a.UpdatedAt = e.ResolvedAt
			return a
		})

	case ad.EventAdDeleted:
		var e ad.AdDeleted
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Delete(readmodel.Ads, e.AdID)
	}

	return nil
}
