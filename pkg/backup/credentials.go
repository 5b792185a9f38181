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

package backup

import "github.com/carverauto/ncc/pkg/models"

// ResolveCredentials returns the credentials a device connects with. A
// record carrying both halves wins outright; otherwise only the missing
// halves are taken from fallback. Missing credentials are not an error
// here since the driver may authenticate another way.
func ResolveCredentials(record *models.DeviceRecord, fallback *models.Credentials) models.Credentials {
	creds := record.Credentials()

	if creds.Complete() || fallback == nil {
		return creds
	}

	if creds.Username == "" {
		creds.Username = fallback.Username
	}

	if creds.Password == "" {
		creds.Password = fallback.Password
	}

	return creds
}

// ApplyFallback returns copies of devices with credentials resolved. The
// input slice is left untouched.
func ApplyFallback(devices []models.DeviceRecord, fallback *models.Credentials) []models.DeviceRecord {
	resolved := make([]models.DeviceRecord, len(devices))

	for i := range devices {
		resolved[i] = devices[i]

		creds := ResolveCredentials(&devices[i], fallback)
		resolved[i].Username = creds.Username
		resolved[i].Password = creds.Password
	}

	return resolved
}
