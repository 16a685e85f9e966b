// Copyright © 2016-2024 Flye authors
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package cmd

import (
	"os"

	colorable "github.com/mattn/go-colorable"
	logging "github.com/shenwei356/go-logging"
)

var log = logging.MustGetLogger("flye")

var logFormat = logging.MustStringFormatter(
	`%{color}%{time:15:04:05.000} %{color:reset}%{color}[%{level:.4s}]%{color:reset} %{message}`,
)

var logFileFormat = logging.MustStringFormatter(
	`%{time:15:04:05.000} [%{level:.4s}] %{message}`,
)

func init() {
	backend := logging.NewBackendFormatter(
		logging.NewLogBackend(colorable.NewColorableStderr(), "", 0), logFormat)
	logging.SetBackend(backend)
}

// configureLogger applies the global flags to the process-wide logger,
// all packages share it through the module name.
func configureLogger(opt *Options) {
	level := logging.INFO
	if opt.Debug {
		level = logging.DEBUG
	} else if !opt.Verbose {
		level = logging.ERROR
	}

	stderr := logging.AddModuleLevel(logging.NewBackendFormatter(
		logging.NewLogBackend(colorable.NewColorableStderr(), "", 0), logFormat))
	stderr.SetLevel(level, "")

	if !opt.Log2File {
		logging.SetBackend(stderr)
		return
	}

	fh, err := os.Create(opt.LogFile)
	checkError(err)
	file := logging.AddModuleLevel(logging.NewBackendFormatter(
		logging.NewLogBackend(fh, "", 0), logFileFormat))
	file.SetLevel(level, "")

	logging.SetBackend(stderr, file)
}
