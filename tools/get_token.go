// Command get_token obtains a read-only Gmail refresh token for the
// mailbox ingestion source.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

func main() {
	redirect := flag.String("redirect", "http://localhost:8080/callback", "OAuth redirect URL registered for the client")
	flag.Parse()

	clientID := os.Getenv("GMAIL_CLIENT_ID")
	clientSecret := os.Getenv("GMAIL_CLIENT_SECRET")

	if clientID == "" || clientSecret == "" {
		log.Fatal("Please set GMAIL_CLIENT_ID and GMAIL_CLIENT_SECRET environment variables")
	}

	// Income emails are only ever read.
	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Scopes:       []string{gmail.GmailReadonlyScope},
		Endpoint:     google.Endpoint,
		RedirectURL:  *redirect,
	}

	authURL := config.AuthCodeURL("aura-mailbox", oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	fmt.Printf("Go to the following link in your browser: %v\n", authURL)
	fmt.Println("\nAfter authorization, you'll be redirected to a URL. Copy the 'code' parameter from that URL.")

	var authCode string
	fmt.Print("\nEnter the authorization code: ")
	if _, err := fmt.Scan(&authCode); err != nil {
		log.Fatalf("Unable to read authorization code: %v", err)
	}

	ctx := context.Background()
	tok, err := config.Exchange(ctx, authCode)
	if err != nil {
		log.Fatalf("Unable to retrieve token from web: %v", err)
	}
	if tok.RefreshToken == "" {
		log.Fatal("No refresh token returned; revoke the app's access and try again")
	}

	svc, err := gmail.NewService(ctx, option.WithTokenSource(config.TokenSource(ctx, tok)))
	if err != nil {
		log.Fatalf("Unable to create Gmail client: %v", err)
	}
	profile, err := svc.Users.GetProfile("me").Do()
	if err != nil {
		log.Fatalf("Token works but the mailbox could not be read: %v", err)
	}

	fmt.Printf("\nAuthorized mailbox: %s (%d messages)\n", profile.EmailAddress, profile.MessagesTotal)
	fmt.Println("\nAdd these to your environment to enable mailbox ingestion:")
	fmt.Println("export MAILBOX_ENABLED=true")
	fmt.Printf("export GMAIL_USER_EMAIL=%q\n", profile.EmailAddress)
	fmt.Printf("export GMAIL_REFRESH_TOKEN=%q\n", tok.RefreshToken)
}
