/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package ledger

import "time"

// CanReward decides whether a timed reward is available. Pure and
// deterministic: lastRewardAt is the unix timestamp of the last successful
// reward (nil if none).
//
// Returns (true, 0) when the reward is allowed, otherwise (false, remaining)
// where remaining is how long until the window reopens.
func CanReward(lastRewardAt *int64, now time.Time, cooldown time.Duration) (bool, time.Duration) {
	if lastRewardAt == nil {
		return true, 0
	}

	elapsed := time.Duration(now.Unix()-*lastRewardAt) * time.Second
	if elapsed >= cooldown {
		return true, 0
	}
	return false, cooldown - elapsed
}
