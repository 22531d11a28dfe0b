// Command testbin is a fake interactive installer used to test the
// unattended library against a real tmux session. It asks the same questions
// as the Nexus CLI installer and reads each answer from stdin.
//
// Behavior:
//   - Prints a menu and waits for "1"
//   - Asks for agreement to the terms and waits for "Y"
//   - Asks the account question -account times, each waiting for "y"
//   - Offers a sign-in choice and waits for "2"
//   - Asks for the node ID and prints it back
//   - Prints "install complete" and exits 0
//
// A wrong answer prints "unexpected answer" and exits 1. With -split each
// question is written in two parts with a pause between them.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"
)

type question struct {
	text string
	want string
}

func main() {
	account := flag.Int("account", 1, "times to ask about the existing account")
	split := flag.Bool("split", false, "write each question in two parts")
	flag.Parse()

	questions := []question{
		{text: "Choose an option:\n1) Proceed with standard installation\n2) Cancel\n> ", want: "1"},
		{text: "Do you agree to the Nexus Beta Terms of Use (Y/n)? ", want: "Y"},
	}
	for i := 0; i < *account; i++ {
		questions = append(questions, question{text: "Do you want to use the existing user account? (y/n) ", want: "y"})
	}
	questions = append(questions,
		question{text: "[1] Sign in with wallet\n[2] Enter '2' to use a node ID\n", want: "2"},
		question{text: "Please enter your node ID: ", want: ""},
	)

	fmt.Println("nexus installer fixture")

	scanner := bufio.NewScanner(os.Stdin)
	for _, q := range questions {
		ask(q.text, *split)
		if !scanner.Scan() {
			fmt.Println("input closed")
			os.Exit(1)
		}
		answer := strings.TrimSpace(scanner.Text())
		if q.want != "" && answer != q.want {
			fmt.Printf("unexpected answer %q (want %q)\n", answer, q.want)
			os.Exit(1)
		}
		if q.want == "" {
			fmt.Printf("node id: %s\n", answer)
		}
	}

	fmt.Println("install complete")
}

func ask(text string, split bool) {
	if !split || len(text) < 2 {
		fmt.Print(text)
		return
	}
	half := len(text) / 2
	fmt.Print(text[:half])
	os.Stdout.Sync()
	time.Sleep(300 * time.Millisecond)
	fmt.Print(text[half:])
}
