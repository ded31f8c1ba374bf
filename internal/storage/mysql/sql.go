package mysql

const propertyColumns = `
  p.id,
  p.title,
  p.description,
  p.price,
  p.address,
  p.type,
  p.status,
  p.bedrooms,
  p.bathrooms,
  p.area_size,
  p.contact_email,
  p.contact_phone,
  p.agent_id,
  p.published_at,
  p.created_at,
  p.updated_at`

// searchPropertiesSQL is completed by the predicate renderer with WHERE,
// ORDER BY and LIMIT.
const searchPropertiesSQL = `SELECT` + propertyColumns + `
FROM properties p`

const getPropertySQL = `
SELECT` + propertyColumns + `,
  a.id,
  a.name,
  a.email,
  a.phone,
  a.bio,
  a.photo_url,
  a.created_at,
  a.updated_at
FROM properties p
LEFT JOIN agents a ON a.id = p.agent_id
WHERE p.id = ?
`

const propertyExistsSQL = `SELECT 1 FROM properties WHERE id = ?`

const listPropertyIDsSQL = `SELECT id FROM properties ORDER BY id`

const insertPropertySQL = `
INSERT INTO properties
  (id, title, description, price, address, type, status, bedrooms, bathrooms,
   area_size, contact_email, contact_phone, agent_id, published_at, created_at, updated_at)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const deletePropertySQL = `DELETE FROM properties WHERE id = ?`

// -----------------------------------------------------------------------------
// IMAGES
// -----------------------------------------------------------------------------

const imageColumns = `id, property_id, url, storage_path, is_main, created_at, updated_at`

// Main image first, then newest.
const listImagesSQL = `
SELECT ` + imageColumns + `
FROM property_images
WHERE property_id = ?
ORDER BY is_main DESC, created_at DESC, id DESC
`

// listImagesForPrefix is completed with an IN (...) list by the caller.
const listImagesForPrefix = `
SELECT ` + imageColumns + `
FROM property_images
WHERE property_id IN (`

const listImagesForSuffix = `)
ORDER BY property_id, is_main DESC, created_at DESC, id DESC`

const getImageSQL = `
SELECT ` + imageColumns + `
FROM property_images
WHERE id = ? AND property_id = ?
`

const insertImageSQL = `
INSERT INTO property_images
  (id, property_id, url, storage_path, is_main, created_at, updated_at)
VALUES
  (?, ?, ?, ?, ?, ?, ?)
`

// Sets the target and clears every sibling in one statement. MySQL evaluates
// single-table SET assignments left to right, so updated_at is computed from
// the previous is_main.
const promoteImageSQL = `
UPDATE property_images
SET updated_at = IF(is_main <> (id = ?), CURRENT_TIMESTAMP(6), updated_at),
    is_main    = (id = ?)
WHERE property_id = ?
`

// The derived table lets MySQL read the table it is updating; LIMIT keeps
// the optimizer from merging it back into the UPDATE (error 1093).
const promoteIfNoMainSQL = `
UPDATE property_images
SET is_main = TRUE, updated_at = CURRENT_TIMESTAMP(6)
WHERE id = ? AND property_id = ?
  AND NOT EXISTS (
    SELECT 1 FROM (SELECT id FROM property_images WHERE property_id = ? AND is_main LIMIT 1) m
  )
`

const lockPropertySQL = `SELECT id FROM properties WHERE id = ? FOR UPDATE`

const imageIsMainSQL = `SELECT is_main FROM property_images WHERE id = ? AND property_id = ?`

const deleteImageSQL = `DELETE FROM property_images WHERE id = ? AND property_id = ?`

const newestImageSQL = `
SELECT id FROM property_images
WHERE property_id = ?
ORDER BY created_at DESC, id DESC
LIMIT 1
`

// -----------------------------------------------------------------------------
// INQUIRIES
// -----------------------------------------------------------------------------

// Note: READ is reserved in MySQL; the column is is_read.
const inquirySelect = `
SELECT
  i.id,
  i.property_id,
  i.name,
  i.email,
  i.phone,
  i.message,
  i.is_read,
  i.created_at,
  p.title
FROM property_inquiries i
JOIN properties p ON p.id = i.property_id`

const insertInquirySQL = `
INSERT INTO property_inquiries
  (id, property_id, name, email, phone, message, is_read, created_at)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?)
`

const setInquiryReadSQL = `UPDATE property_inquiries SET is_read = ? WHERE id = ?`

const deleteInquirySQL = `DELETE FROM property_inquiries WHERE id = ?`

// -----------------------------------------------------------------------------
// AGENTS
// -----------------------------------------------------------------------------

const agentSelect = `
SELECT id, name, email, phone, bio, photo_url, created_at, updated_at
FROM agents`

const insertAgentSQL = `
INSERT INTO agents
  (id, name, email, phone, bio, photo_url, created_at, updated_at)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?)
`

const agentPropertyIDsSQL = `SELECT id FROM properties WHERE agent_id = ?`

const updateAgentSQL = `
UPDATE agents
SET name = ?, email = ?, phone = ?, bio = ?, photo_url = ?, updated_at = ?
WHERE id = ?
`
