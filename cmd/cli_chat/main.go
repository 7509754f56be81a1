package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"chat-relay/internal/config"
	"chat-relay/internal/domain"
	"chat-relay/internal/llm"
	"chat-relay/internal/service"
)

func main() {
	ctx := context.Background()
	reader := bufio.NewReader(os.Stdin)

	_ = godotenv.Load()

	cfg, err := config.LoadClientConfig()
	if err != nil {
		log.Fatal(err)
	}
	initial := cfg.Generation()
	if err := initial.Validate(); err != nil {
		log.Fatal(err)
	}

	logger := zap.NewExample(zap.IncreaseLevel(zap.WarnLevel))
	defer logger.Sync()

	relay := llm.NewRelayClient(cfg.RelayURL, cfg.Timeout, logger)
	session := service.NewChatSession(relay, relay.BaseURL(), initial, logger)

	session.Probe(ctx)
	printHeader(os.Stdout, session)
	for _, m := range session.DisplayMessages() {
		printMessage(os.Stdout, m)
	}

	if err := chatLoop(ctx, reader, os.Stdout, session); err != nil {
		log.Fatal(err)
	}
}

func chatLoop(ctx context.Context, reader *bufio.Reader, out io.Writer, session *service.ChatSession) error {
	fmt.Fprintln(out, "---- Chat (/settings, /probe, /history, 'salir' para terminar) ----")
	for {
		fmt.Fprint(out, "Tu > ")
		raw, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("leer input: %w", err)
		}
		// Los comandos se comparan recortados; el mensaje se envia tal cual se escribio.
		line := strings.TrimRight(raw, "\r\n")
		text := strings.TrimSpace(line)

		switch {
		case text == "":
			continue
		case strings.EqualFold(text, "salir") || strings.EqualFold(text, "exit"):
			fmt.Fprintln(out, "Saliendo del chat...")
			return nil
		case text == "/settings":
			next, save, err := readSettings(reader, out, session.Config())
			if err != nil {
				return err
			}
			if !save {
				fmt.Fprintln(out, "Settings sin cambios.")
				continue
			}
			session.ApplyConfig(ctx, next)
			printHeader(out, session)
			continue
		case text == "/probe":
			session.Probe(ctx)
			printHeader(out, session)
			continue
		case text == "/history":
			for _, m := range session.DisplayMessages() {
				printMessage(out, m)
			}
			continue
		}

		if !session.ProxyAvailable() {
			fmt.Fprintln(out, "(Proxy Offline) envio deshabilitado; usa /probe o /settings.")
			continue
		}

		fmt.Fprintln(out, "AI is typing...")
		reply, err := session.Send(ctx, line)
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		printMessage(out, reply)
		if banner := session.Banner(); banner != "" {
			fmt.Fprintf(out, "[!] %s\n", banner)
		}
	}
}

func printHeader(out io.Writer, session *service.ChatSession) {
	status := ""
	if !session.ProxyAvailable() {
		status = " (Proxy Offline)"
	}
	fmt.Fprintf(out, "===== AI Assistant [%s]%s =====\n", session.Config().ModelName, status)
	if banner := session.Banner(); banner != "" {
		fmt.Fprintf(out, "[!] %s\n", banner)
	}
}

func printMessage(out io.Writer, m domain.DisplayMessage) {
	who := "Bot"
	if m.Sender == domain.SenderUser {
		who = "Tu"
	}
	fmt.Fprintf(out, "[%s] %s > %s\n", m.Timestamp.Format("15:04"), who, m.Text)
}

// readSettings edita una copia de la configuracion. Una linea vacia mantiene
// el valor actual; los valores fuera de rango se vuelven a pedir.
func readSettings(reader *bufio.Reader, out io.Writer, current domain.GenerationConfig) (domain.GenerationConfig, bool, error) {
	next := current
	fmt.Fprintln(out, "--- AI Chatbot Settings (enter = mantener) ---")

	model, err := readLine(reader, out, fmt.Sprintf("Model name [%s]: ", current.ModelName))
	if err != nil {
		return current, false, err
	}
	if model != "" {
		next.ModelName = model
	}

	for {
		raw, err := readLine(reader, out, fmt.Sprintf("Temperature %.1f-%.1f [%.1f]: ", domain.MinTemperature, domain.MaxTemperature, current.Temperature))
		if err != nil {
			return current, false, err
		}
		if raw == "" {
			break
		}
		v, perr := strconv.ParseFloat(raw, 64)
		next.Temperature = v
		if perr == nil && next.Validate() == nil {
			break
		}
		next.Temperature = current.Temperature
		fmt.Fprintln(out, "Temperatura invalida.")
	}

	for {
		raw, err := readLine(reader, out, fmt.Sprintf("Max tokens %d-%d [%d]: ", domain.MinMaxTokens, domain.MaxMaxTokens, current.MaxTokens))
		if err != nil {
			return current, false, err
		}
		if raw == "" {
			break
		}
		v, perr := strconv.Atoi(raw)
		next.MaxTokens = v
		if perr == nil && next.Validate() == nil {
			break
		}
		next.MaxTokens = current.MaxTokens
		fmt.Fprintln(out, "Max tokens invalido.")
	}

	prompt, err := readLine(reader, out, "System prompt [actual]: ")
	if err != nil {
		return current, false, err
	}
	if prompt != "" {
		next.SystemPrompt = prompt
	}

	confirm, err := readLine(reader, out, "Guardar settings? [S/n]: ")
	if err != nil {
		return current, false, err
	}
	switch strings.ToLower(confirm) {
	case "", "s", "si", "y", "yes":
		return next, true, nil
	default:
		return current, false, nil
	}
}

func readLine(reader *bufio.Reader, out io.Writer, prompt string) (string, error) {
	fmt.Fprint(out, prompt)
	line, err := reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("leer input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
