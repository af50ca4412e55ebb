/*
 * MIT License
 *
 * Copyright (c) 2026 Helianthus Authors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package rpclog

import (
	"io"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// FuncLog is a lazy Logger provider, used for dependency injection so a
// component can be constructed before its final logger is known.
type FuncLog func() Logger

// Logger is the logging surface every RPC component depends on.
type Logger interface {
	SetLevel(lvl Level)
	GetLevel() Level

	WithFields(f Fields) Logger

	Debug(msg string, f Fields)
	Info(msg string, f Fields)
	Warn(msg string, f Fields)
	Error(msg string, f Fields)

	Close() error
}

type logger struct {
	l    *logrus.Logger
	lvl  atomic.Uint32
	base Fields
}

// New builds a Logger writing to w in text format, the way this module's
// components are wired in tests (a buffer) and in production (stdout /
// stderr via the hosting CLI).
func New(w io.Writer, lvl Level) Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	g := &logger{l: l}
	g.SetLevel(lvl)
	return g
}

func toLogrusLevel(lvl Level) logrus.Level {
	switch lvl {
	case PanicLevel:
		return logrus.PanicLevel
	case FatalLevel:
		return logrus.FatalLevel
	case ErrorLevel:
		return logrus.ErrorLevel
	case WarnLevel:
		return logrus.WarnLevel
	case InfoLevel:
		return logrus.InfoLevel
	case DebugLevel:
		return logrus.DebugLevel
	default:
		return logrus.PanicLevel
	}
}

func (g *logger) SetLevel(lvl Level) {
	g.lvl.Store(uint32(lvl))
	if lvl == NilLevel {
		g.l.SetOutput(io.Discard)
		return
	}
	g.l.SetLevel(toLogrusLevel(lvl))
}

func (g *logger) GetLevel() Level { return Level(g.lvl.Load()) }

func (g *logger) WithFields(f Fields) Logger {
	merged := make(Fields, len(g.base)+len(f))
	for k, v := range g.base {
		merged[k] = v
	}
	for k, v := range f {
		merged[k] = v
	}
	return &logger{l: g.l, base: merged}
}

func (g *logger) entry() *logrus.Entry { return g.l.WithFields(g.base.toLogrus()) }

func (g *logger) Debug(msg string, f Fields) { g.WithFields(f).(*logger).entry().Debug(msg) }
func (g *logger) Info(msg string, f Fields)  { g.WithFields(f).(*logger).entry().Info(msg) }
func (g *logger) Warn(msg string, f Fields)  { g.WithFields(f).(*logger).entry().Warn(msg) }
func (g *logger) Error(msg string, f Fields) { g.WithFields(f).(*logger).entry().Error(msg) }

func (g *logger) Close() error { return nil }

// Discard is a Logger that drops everything, used as the zero-value
// default so components never need a nil check.
func Discard() Logger { return New(io.Discard, NilLevel) }
