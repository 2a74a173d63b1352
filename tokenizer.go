package main

import (
	"fmt"
	"strings"

	tiktoken "github.com/pkoukk/tiktoken-go"
	"github.com/sirupsen/logrus"
	hf "github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
)

// Tokenizer counts the model tokens a formatted result will cost an agent.
type Tokenizer interface {
	CountTokens(text string) int
	Close()
}

type TiktokenWrapper struct {
	ttk *tiktoken.Tiktoken
}

func (w *TiktokenWrapper) CountTokens(text string) int {
	if w.ttk == nil {
		return 0
	}
	return len(w.ttk.EncodeOrdinary(text))
}

func (w *TiktokenWrapper) Close() {}

type HFTokenizerWrapper struct {
	htk *hf.Tokenizer
}

func (w *HFTokenizerWrapper) CountTokens(text string) int {
	if w.htk == nil {
		return 0
	}
	en, err := w.htk.EncodeSingle(text)
	if err != nil {
		logrus.WithError(err).Warn("huggingface tokenizer failed to encode text")
		return 0
	}
	return len(en.Tokens)
}

func (w *HFTokenizerWrapper) Close() {}

// TokenizerConfig selects the tokenizer used by --tokens.
type TokenizerConfig struct {
	Kind  string // tiktoken or huggingface
	Model string
	File  string // local tokenizer.json, huggingface only
}

const (
	defaultTiktokenModel = "gpt-4o"
	defaultHFModel       = "gpt2"
)

// getTokenizer returns a tokenizer instance for cfg.
func getTokenizer(cfg TokenizerConfig) (Tokenizer, error) {
	logrus.WithFields(logrus.Fields{
		"tokenizer": cfg.Kind,
		"model":     cfg.Model,
		"file":      cfg.File,
	}).Debug("initializing tokenizer")

	switch strings.ToLower(cfg.Kind) {
	case "", "tiktoken":
		return loadTiktoken(cfg.Model)
	case "huggingface":
		return loadHuggingFace(cfg.Model, cfg.File)
	default:
		return nil, fmt.Errorf("unsupported tokenizer type: %s. Use 'tiktoken' or 'huggingface'", cfg.Kind)
	}
}

func loadTiktoken(model string) (Tokenizer, error) {
	if model == "" {
		model = defaultTiktokenModel
	}
	tke, err := tiktoken.EncodingForModel(model)
	if err != nil {
		logrus.WithError(err).Warnf("tiktoken model %q not found, falling back to %q", model, defaultTiktokenModel)
		tke, err = tiktoken.EncodingForModel(defaultTiktokenModel)
		if err != nil {
			return nil, fmt.Errorf("failed to get tiktoken encoding for default model '%s': %w", defaultTiktokenModel, err)
		}
	}
	return &TiktokenWrapper{ttk: tke}, nil
}

func loadHuggingFace(model, file string) (Tokenizer, error) {
	if file != "" {
		ttk, err := pretrained.FromFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to load tokenizer from file %s: %w", file, err)
		}
		return &HFTokenizerWrapper{htk: ttk}, nil
	}

	if model == "" {
		model = defaultHFModel
	}
	logrus.Infof("loading huggingface tokenizer for model %s (this may download files)", model)
	// CachedPath downloads tokenizer.json from the Hub on first use.
	configFilePath, err := hf.CachedPath(model, "tokenizer.json")
	if err != nil {
		return nil, fmt.Errorf("failed to get cache path for model %s: %w", model, err)
	}
	ttk, err := pretrained.FromFile(configFilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load pretrained tokenizer for model %s (from %s): %w", model, configFilePath, err)
	}
	return &HFTokenizerWrapper{htk: ttk}, nil
}
