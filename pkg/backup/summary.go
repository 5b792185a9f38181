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

// Summarize counts results and groups successes by vendor. It does not
// modify results.
func Summarize(results []*models.BackupResult) models.Summary {
	summary := models.Summary{
		Total:    len(results),
		ByVendor: make(map[string]int),
	}

	for _, r := range results {
		if r == nil || !r.Success {
			summary.Failed++

			continue
		}

		summary.Successful++

		vendor := r.Vendor
		if vendor == "" {
			vendor = models.UnknownVendor
		}

		summary.ByVendor[vendor]++
	}

	return summary
}
