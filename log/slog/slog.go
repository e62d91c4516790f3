// Copyright 2022-2026 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package slog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	wlog "github.com/saucelabs/warden/log"
)

func Default() *Logger {
	return New(wlog.DefaultConfig())
}

func Debug() *Logger {
	return New(&wlog.Config{Level: wlog.DebugLevel, Format: wlog.TextFormat})
}

var (
	_ wlog.Logger           = &Logger{}
	_ wlog.StructuredLogger = &Logger{}
	_ wlog.FullLogger       = &Logger{}
)

type Option func(*Logger)

type Logger struct {
	log     *slog.Logger
	w       io.Writer
	file    *wlog.RotatableFile
	name    string
	attrs   []any
	onError func(name string)
}

func New(cfg *wlog.Config, opts ...Option) *Logger {
	l := &Logger{
		w: os.Stdout,
	}
	if cfg.File != nil {
		l.file = wlog.NewRotatableFile(cfg.File)
		l.w = l.file
	}

	for _, opt := range opts {
		opt(l)
	}

	hops := &slog.HandlerOptions{Level: toSlogLevel(cfg.Level), ReplaceAttr: replaceAttr}
	var handler slog.Handler
	if cfg.Format == wlog.JSONFormat {
		handler = slog.NewJSONHandler(l.w, hops)
	} else {
		handler = slog.NewTextHandler(l.w, hops)
	}
	l.log = slog.New(handler)
	if len(l.attrs) > 0 {
		l.log = l.log.With(l.attrs...)
	}

	return l
}

func (l *Logger) Handler() slog.Handler {
	return l.log.Handler()
}

func (l *Logger) Error(msg string, args ...any) {
	l.ErrorContext(context.Background(), msg, args...)
}

func (l *Logger) ErrorContext(ctx context.Context, msg string, args ...any) {
	if l.onError != nil {
		l.onError(l.name)
	}
	l.log.ErrorContext(ctx, msg, args...)
}

func (l *Logger) Warn(msg string, args ...any) {
	l.log.Warn(msg, args...)
}

func (l *Logger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.log.WarnContext(ctx, msg, args...)
}

func (l *Logger) Info(msg string, args ...any) {
	l.log.Info(msg, args...)
}

func (l *Logger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.log.InfoContext(ctx, msg, args...)
}

func (l *Logger) Debug(msg string, args ...any) {
	l.log.Debug(msg, args...)
}

func (l *Logger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.log.DebugContext(ctx, msg, args...)
}

func (l *Logger) Errorf(format string, args ...any) {
	l.Error(fmt.Sprintf(format, args...))
}

func (l *Logger) Infof(format string, args ...any) {
	l.Info(fmt.Sprintf(format, args...))
}

func (l *Logger) Debugf(format string, args ...any) {
	l.Debug(fmt.Sprintf(format, args...))
}

func (l *Logger) With(args ...any) wlog.StructuredLogger {
	c := *l
	c.log = c.log.With(args...)
	return &c
}

func (l *Logger) Named(name string) *Logger {
	c := *l
	c.name = name
	c.log = c.log.With("name", name)
	return &c
}

func (l *Logger) Reopen() error {
	if l.file == nil {
		return nil
	}
	return l.file.Reopen()
}

func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

func toSlogLevel(level wlog.Level) slog.Level {
	switch level {
	case wlog.ErrorLevel:
		return slog.LevelError
	case wlog.WarnLevel:
		return slog.LevelWarn
	case wlog.InfoLevel:
		return slog.LevelInfo
	case wlog.DebugLevel:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

func replaceAttr(_ []string, a slog.Attr) slog.Attr {
	switch a.Key {
	case slog.TimeKey:
		a.Key = "timestamp"
	case slog.LevelKey:
		a.Key = "severity"
	case slog.MessageKey:
		a.Key = "message"
	}
	return a
}
