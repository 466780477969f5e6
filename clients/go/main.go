// mescon CLI - command line client for the mescon chat relay
package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Vjnishad/mescon/clients/go/mescon"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	baseURL := os.Getenv("MESCON_URL")
	client := mescon.NewClient(baseURL)
	cmd := os.Args[1]

	switch cmd {
	case "login":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: mescon login <mobile>")
			os.Exit(1)
		}
		mobile := os.Args[2]
		exitOnError(client.SendOTP(mobile))
		fmt.Print("Enter the code you received: ")
		code, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		exitOnError(client.VerifyOTP(mobile, strings.TrimSpace(code)))
		fmt.Printf("Logged in as %s\n", mobile)

	case "contacts":
		contacts, err := client.ListContacts()
		exitOnError(err)
		for _, c := range contacts {
			status := " "
			if c.Online {
				status = "*"
			}
			fmt.Printf("%s %s  %s\n", status, c.ID, c.Name)
		}

	case "add":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: mescon add <mobile> [name]")
			os.Exit(1)
		}
		name := ""
		if len(os.Args) > 3 {
			name = os.Args[3]
		}
		exitOnError(client.AddContact(os.Args[2], name))
		fmt.Println("Contact added")

	case "history":
		threads, err := client.History()
		exitOnError(err)
		for counterpart, entries := range threads {
			fmt.Printf("--- %s ---\n", counterpart)
			for _, e := range entries {
				who := counterpart
				if e.Sender == "me" {
					who = "me"
				}
				ts := e.Timestamp
				if parsed, err := time.Parse(time.RFC3339Nano, e.Timestamp); err == nil {
					ts = parsed.Local().Format("2006-01-02 15:04:05")
				}
				fmt.Printf("[%s] %s: %s\n", ts, who, e.Text)
			}
		}

	case "chat":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: mescon chat <mobile>")
			os.Exit(1)
		}
		chat(client, os.Args[2])

	case "whoami":
		profile, err := client.GetProfile()
		exitOnError(err)
		printJSON(profile)

	case "help", "--help", "-h":
		usage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		usage()
		os.Exit(1)
	}
}

// chat runs an interactive session: stdin lines go to the recipient, inbound
// frames print as they arrive.
func chat(client *mescon.Client, recipient string) {
	conn, err := client.Connect()
	exitOnError(err)
	defer conn.Close()

	go func() {
		for {
			in, err := conn.Read()
			if err != nil {
				fmt.Fprintln(os.Stderr, "Connection closed:", err)
				os.Exit(0)
			}
			if in.Type == "chat_message" && in.SenderID != client.Mobile {
				fmt.Printf("%s: %s\n", in.SenderID, in.Text)
			}
		}
	}()

	fmt.Printf("Chatting with %s (ctrl-d to quit)\n", recipient)
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if err := conn.SendChat(recipient, text); err != nil {
			fmt.Fprintln(os.Stderr, "Send failed:", err)
			return
		}
	}
}

func usage() {
	fmt.Println(`mescon CLI - phone-number chat over a relay server

Usage: mescon <command> [options]

Commands:
  login <mobile>         Request a login code and sign in
  chat <mobile>          Interactive chat with a number
  history                Show past conversations
  contacts               List contacts
  add <mobile> [name]    Add a contact
  whoami                 Show your profile
  help                   Show this help

Environment:
  MESCON_URL      Server URL (default: http://localhost:8080)
  MESCON_CONFIG   Config directory (default: ~/.mescon)`)
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func printJSON(v interface{}) {
	data, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(data))
}
