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

package cli

import "errors"

var (
	errNoCommand        = errors.New("no command given")
	errUnknownCommand   = errors.New("unknown command")
	errDevicesRequired  = errors.New("devices file is required")
	errPasswordRequired = errors.New("--username requires --password (no terminal to prompt on)")
	errUsernameRequired = errors.New("--password requires --username")
	errEmptyPassword    = errors.New("password cannot be empty")
	errUnexpectedArgs   = errors.New("unexpected arguments")
)
