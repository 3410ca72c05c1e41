package postgres

// schemaStatements create the catalog tables. Order matters for the
// foreign keys.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS book (
		id              text PRIMARY KEY,
		title           varchar(200) NOT NULL,
		subtitle        varchar(200),
		publisher       varchar(100),
		published_date  date,
		page_count      integer,
		maturity_rating varchar(30),
		language        varchar(5)
	)`,
	`CREATE TABLE IF NOT EXISTS author (
		id   bigserial PRIMARY KEY,
		name varchar(60) NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS category (
		id   bigserial PRIMARY KEY,
		name varchar(60) NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS book_author (
		book_id   text   NOT NULL REFERENCES book (id),
		author_id bigint NOT NULL REFERENCES author (id),
		PRIMARY KEY (book_id, author_id)
	)`,
	`CREATE TABLE IF NOT EXISTS book_category (
		book_id     text   NOT NULL REFERENCES book (id),
		category_id bigint NOT NULL REFERENCES category (id),
		PRIMARY KEY (book_id, category_id)
	)`,
	`CREATE TABLE IF NOT EXISTS industry_identifier (
		identifier varchar(40) NOT NULL,
		type       varchar(8)  NOT NULL,
		book_id    text        NOT NULL REFERENCES book (id),
		PRIMARY KEY (identifier, type)
	)`,
	`CREATE TABLE IF NOT EXISTS book_record (
		id             bigserial PRIMARY KEY,
		average_rating double precision,
		ratings_count  integer,
		sale_country   varchar(5),
		saleability    varchar(20),
		is_ebook       boolean,
		list_price     numeric(8, 2),
		retail_price   numeric(8, 2),
		access_country varchar(5),
		viewability    varchar(20),
		text_to_speech varchar(30),
		epub_available boolean,
		pdf_available  boolean,
		record_date    date NOT NULL,
		book_id        text NOT NULL REFERENCES book (id)
	)`,
	`CREATE INDEX IF NOT EXISTS book_record_book_id_idx ON book_record (book_id, record_date)`,
}
