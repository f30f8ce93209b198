package alerts

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hibiken/asynq"
)

// ensureClient returns a usable client instance
func ensureClient() *asynq.Client {
	if client == nil {
		Init()
	}
	return client
}

// EnqueueWelcomeEmail schedules a welcome email to the user
func EnqueueWelcomeEmail(userID, email, name string) error {
	base := os.Getenv("APP_URL")
	if base == "" {
		base = "http://localhost:3000"
	}
	base = strings.TrimRight(base, "/")

	env := EmailEnvelope{
		To:      email,
		Subject: fmt.Sprintf("Welcome to Loops, %s!", name),
		Body:    fmt.Sprintf("Hi %s, thanks for joining Loops, your campus marketplace.\n\nOpen Loops: %s", name, base),
	}
	payload := WelcomeEmailPayload{UserID: userID, Name: name, Email: email, Envelope: env, SentAt: time.Now()}
	b, _ := json.Marshal(payload)
	task := asynq.NewTask(TaskWelcomeEmail, b)
	_, err := ensureClient().Enqueue(task, asynq.Queue("emails"))
	return err
}

// EnqueueLoopOpened notifies the seller that a buyer opened a loop
func EnqueueLoopOpened(loopID, buyerID, sellerID, sellerEmail, listingTitle string, amount float64) error {
	env := EmailEnvelope{
		To:      sellerEmail,
		Subject: "New loop on " + listingTitle,
		Body:    fmt.Sprintf("A buyer opened loop %s for %q at %.2f. Confirm fulfillment when you are ready.", loopID, listingTitle, amount),
	}
	payload := LoopOpenedPayload{LoopID: loopID, BuyerID: buyerID, SellerID: sellerID, Email: sellerEmail, ListingTitle: listingTitle, Amount: amount, Envelope: env, SentAt: time.Now()}
	b, _ := json.Marshal(payload)
	task := asynq.NewTask(TaskLoopOpened, b)
	_, err := ensureClient().Enqueue(task, asynq.Queue("emails"))
	return err
}

// EnqueueVendorConfirmed notifies the buyer after the vendor confirms fulfillment
func EnqueueVendorConfirmed(loopID, buyerID, sellerID, buyerEmail string, amount float64) error {
	env := EmailEnvelope{
		To:      buyerEmail,
		Subject: "Vendor confirmed your loop",
		Body:    fmt.Sprintf("The vendor confirmed fulfillment of loop %s (%.2f). Confirm receipt to close the loop and earn reputation.", loopID, amount),
	}
	payload := VendorConfirmedPayload{LoopID: loopID, BuyerID: buyerID, SellerID: sellerID, Email: buyerEmail, Amount: amount, Envelope: env, SentAt: time.Now()}
	b, _ := json.Marshal(payload)
	task := asynq.NewTask(TaskVendorConfirmed, b)
	_, err := ensureClient().Enqueue(task, asynq.Queue("emails"))
	return err
}

// EnqueueLoopCompleted notifies the seller that the loop closed
func EnqueueLoopCompleted(loopID, buyerID, sellerID, sellerEmail string, amount float64) error {
	env := EmailEnvelope{
		To:      sellerEmail,
		Subject: "Loop completed",
		Body:    fmt.Sprintf("Loop %s closed at %.2f. Reputation has been awarded.", loopID, amount),
	}
	payload := LoopCompletedPayload{LoopID: loopID, BuyerID: buyerID, SellerID: sellerID, Email: sellerEmail, Amount: amount, Envelope: env, SentAt: time.Now()}
	b, _ := json.Marshal(payload)
	task := asynq.NewTask(TaskLoopCompleted, b)
	_, err := ensureClient().Enqueue(task, asynq.Queue("emails"))
	return err
}

// EnqueueOfferAccepted notifies the buyer that the seller accepted their offer
func EnqueueOfferAccepted(offerID, loopID, buyerID, sellerID, buyerEmail string, amount float64) error {
	env := EmailEnvelope{
		To:      buyerEmail,
		Subject: "Your offer was accepted",
		Body:    fmt.Sprintf("Your offer of %.2f was accepted and loop %s is now open.", amount, loopID),
	}
	payload := OfferAcceptedPayload{OfferID: offerID, LoopID: loopID, BuyerID: buyerID, SellerID: sellerID, Email: buyerEmail, Amount: amount, Envelope: env, SentAt: time.Now()}
	b, _ := json.Marshal(payload)
	task := asynq.NewTask(TaskOfferAccepted, b)
	_, err := ensureClient().Enqueue(task, asynq.Queue("emails"))
	return err
}
