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

package database

const (
	// User queries
	queryGetUserById = `
		SELECT id, username, referrer_id, last_reward_at, activated_at, created_at
		FROM users
		WHERE id = ?`

	queryGetUsers = `
		SELECT id, username, referrer_id, last_reward_at, activated_at, created_at
		FROM users
		ORDER BY created_at`

	queryInsertUser = `
		INSERT INTO users (id, username, referrer_id)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO NOTHING`

	// Conditional claim of the reward window, keyed on the previously
	// observed last_reward_at. Zero rows affected means a concurrent call
	// already claimed the window.
	queryClaimRewardWindow = `
		UPDATE users
		SET last_reward_at = ?
		WHERE id = ? AND last_reward_at IS ?`

	queryMarkActivated = `
		UPDATE users
		SET activated_at = ?
		WHERE id = ? AND activated_at IS NULL`

	queryCountReferrals = `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN activated_at IS NOT NULL THEN 1 ELSE 0 END), 0)
		FROM users
		WHERE referrer_id = ?`

	// Balance queries
	queryGetBalance = `
		SELECT balance
		FROM account_balances
		WHERE user_id = ?`

	queryGetAccountBalance = `
		SELECT id, balance, version
		FROM account_balances
		WHERE user_id = ?`

	queryInsertAccountBalance = `
		INSERT INTO account_balances (id, user_id, balance, version)
		VALUES (?, ?, ?, ?)`

	queryUpdateAccountBalance = `
		UPDATE account_balances
		SET balance = ?, last_transaction_id = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ? AND version = ?`

	// Transaction queries
	queryInsertTransaction = `
		INSERT INTO transactions (user_id, kind, amount, balance_before, balance_after, note, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id`

	queryGetTransactionHistory = `
		SELECT id, user_id, kind, amount, balance_before, balance_after, note, created_at
		FROM transactions
		WHERE user_id = ?
		ORDER BY id DESC
		LIMIT ? OFFSET ?`

	queryGetTransactionAmounts = `
		SELECT amount
		FROM transactions
		WHERE user_id = ?`

	// Withdrawal queries
	queryInsertWithdrawal = `
		INSERT INTO withdrawals (user_id, amount, status, created_at)
		VALUES (?, ?, ?, ?)
		RETURNING id`

	// Sponsor queries
	queryGetSponsors = `
		SELECT id, channel_username, channel_url
		FROM sponsors
		ORDER BY id`

	queryDeleteSponsors = `
		DELETE FROM sponsors`

	queryInsertSponsor = `
		INSERT INTO sponsors (id, channel_username, channel_url)
		VALUES (?, ?, ?)`

	queryGetSponsorStatuses = `
		SELECT user_id, sponsor_id, is_subscribed, last_check
		FROM user_sponsors
		WHERE user_id = ?`

	queryUpsertSponsorStatus = `
		INSERT INTO user_sponsors (user_id, sponsor_id, is_subscribed, last_check)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id, sponsor_id) DO UPDATE
		SET is_subscribed = excluded.is_subscribed, last_check = excluded.last_check`

	// Reporting queries
	queryCountUsers = `
		SELECT COUNT(*) FROM users`

	queryCountPendingWithdrawals = `
		SELECT COUNT(*) FROM withdrawals WHERE status = 'pending'`

	queryGetAllBalances = `
		SELECT balance FROM account_balances`

	queryGetTopBalances = `
		SELECT u.id, u.username, b.balance
		FROM users u
		JOIN account_balances b ON b.user_id = u.id
		ORDER BY CAST(b.balance AS REAL) DESC
		LIMIT ?`
)
