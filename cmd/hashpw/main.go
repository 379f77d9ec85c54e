// Command hashpw reads a password without echoing it and prints its bcrypt
// hash, for seeding rows in the students and teachers tables.
//
//	hashpw [-cost 12]
//
// Without -cost the server's BCRYPT_COST setting applies.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/schoolauth/internal/server/auth"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"
)

func main() {
	fallback, err := defaultCost()
	if err != nil {
		fmt.Fprintln(os.Stderr, "hashpw:", err)
		os.Exit(1)
	}
	cost := flag.Int("cost", fallback, "bcrypt cost (default from BCRYPT_COST)")
	flag.Parse()

	if err := run(os.Stdin, os.Stdout, os.Stderr, *cost); err != nil {
		fmt.Fprintln(os.Stderr, "hashpw:", err)
		os.Exit(1)
	}
}

// defaultCost reads BCRYPT_COST, the variable the server is configured
// with, falling back to bcrypt.DefaultCost.
func defaultCost() (int, error) {
	v := os.Getenv("BCRYPT_COST")
	if v == "" {
		return bcrypt.DefaultCost, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("BCRYPT_COST: %w", err)
	}
	return n, nil
}

func run(in *os.File, out, prompt io.Writer, cost int) error {
	h, err := auth.NewPasswordHasher(cost)
	if err != nil {
		return err
	}

	password, err := readPassword(in, prompt)
	if err != nil {
		return err
	}
	if password == "" {
		return errors.New("empty password")
	}

	hash, err := h.Hash(password)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, hash)
	return err
}

// readPassword disables echo when in is a terminal and falls back to
// reading one line otherwise (pipes, tests).
func readPassword(in *os.File, prompt io.Writer) (string, error) {
	fd := int(in.Fd())
	if !term.IsTerminal(fd) {
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", err
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	fmt.Fprint(prompt, "Password: ")
	first, err := term.ReadPassword(fd)
	fmt.Fprintln(prompt)
	if err != nil {
		return "", err
	}

	fmt.Fprint(prompt, "Repeat password: ")
	second, err := term.ReadPassword(fd)
	fmt.Fprintln(prompt)
	if err != nil {
		return "", err
	}

	if string(first) != string(second) {
		return "", errors.New("passwords do not match")
	}
	return string(first), nil
}
