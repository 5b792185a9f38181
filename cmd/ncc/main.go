/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/carverauto/ncc/pkg/cli"
	"github.com/carverauto/ncc/pkg/report"
)

func main() {
	if err := run(); err != nil {
		report.New(os.Stderr).Error(err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := cli.ParseFlags(os.Args[1:])
	if err != nil {
		return fmt.Errorf("%w (see ncc --help)", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return cli.NewApp().Run(ctx, cfg)
}
